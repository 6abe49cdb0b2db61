// Package storage 本地文件存储，管理考试录像与取证片段的落盘路径
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store 以根目录为边界的本地文件存储
// 对外只暴露相对路径，读取时做路径穿越校验
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir storage root: %w", err)
	}
	return &Store{root: abs}, nil
}

func (s *Store) Root() string {
	return s.root
}

// RecordingPath 会话录像的相对存储路径
func (s *Store) RecordingPath(sessionID, filename string) string {
	return filepath.Join("recordings", sessionID, filepath.Base(filename))
}

// ClipPath 违规取证片段的相对存储路径
func (s *Store) ClipPath(sessionID string, flagID int64) string {
	return filepath.Join("clips", sessionID, fmt.Sprintf("flag_%d.mp4", flagID))
}

// Resolve 把相对路径转换为根目录下的绝对路径
// 拒绝越出根目录的路径
func (s *Store) Resolve(rel string) (string, error) {
	abs := filepath.Join(s.root, filepath.Clean("/"+rel))
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", rel)
	}
	return abs, nil
}

// Stat 校验相对路径指向的文件存在且可读
func (s *Store) Stat(rel string) (string, int64, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return "", 0, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", 0, err
	}
	if info.IsDir() {
		return "", 0, fmt.Errorf("path %q is a directory", rel)
	}
	return abs, info.Size(), nil
}

// Save 把数据流写入相对路径，必要时创建父目录
func (s *Store) Save(rel string, r io.Reader) (int64, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}

	// 先写临时文件再改名，避免上传中断留下半截文件
	tmp, err := os.CreateTemp(filepath.Dir(abs), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("write %q: %w", rel, err)
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		return 0, fmt.Errorf("rename: %w", err)
	}
	return n, nil
}

// Remove 删除相对路径指向的文件，文件不存在视为成功
func (s *Store) Remove(rel string) error {
	abs, err := s.Resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
