package ota

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ixugo/goddd/pkg/system"
)

const upgradeArchive = "upgrade.tar.gz"

// downloadTo 把升级包下载到工作目录，边下边回调进度
// 只负责落盘，解压与二进制替换交给部署脚本，服务重启后生效
func downloadTo(link string, onProgress func(current, total int64)) error {
	client := &http.Client{Timeout: 30 * time.Minute}
	resp, err := client.Get(link)
	if err != nil {
		return fmt.Errorf("下载升级包失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("下载升级包失败，状态码: %d", resp.StatusCode)
	}

	target := filepath.Join(system.Getwd(), upgradeArchive)
	_ = os.RemoveAll(target)

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("创建升级包文件失败: %w", err)
	}
	defer f.Close()

	p := NewProgressReader(resp.ContentLength, resp.Body, onProgress)
	defer p.Close()

	if _, err := io.Copy(f, p); err != nil {
		return fmt.Errorf("写入升级包失败: %w", err)
	}
	return nil
}
