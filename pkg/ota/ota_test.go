package ota

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetLastVersion(t *testing.T) {
	version, desc, err := GetLastVersion("proctorly/kestrel")
	if err != nil {
		t.Fatalf("GetLastVersion() error = %v", err)
	}
	t.Logf("version = %s", version)
	t.Logf("desc = %s", desc)
}

func TestGetDownloadLink(t *testing.T) {
	o := NewOTA("github.com/proctorly/kestrel", "linux_amd64")
	want := "https://github.com/proctorly/kestrel/releases/latest/download/linux_amd64"
	if got := o.getDownloadLink(); got != want {
		t.Fatalf("link = %s, want %s", got, want)
	}
}

func TestDownloadToBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if err := downloadTo(srv.URL, nil); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
