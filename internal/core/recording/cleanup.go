package recording

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
	"github.com/shirou/gopsutil/v4/disk"
	"gorm.io/gorm"
)

// StartCleanupWorker 启动定时清理协程
// 程序启动时执行一次清理，随后每 60 分钟执行一次
func (c Core) StartCleanupWorker() {
	if c.conf == nil || c.conf.CleanupDisabled {
		slog.Info("recording cleanup disabled")
		return
	}

	slog.Info("recording cleanup worker started",
		"retain_days", c.conf.RetainDays,
		"disk_threshold", c.conf.DiskUsageThreshold,
		"storage_dir", c.files.Root(),
	)

	// 程序启动时先执行一次清理
	c.runCleanup()

	// 每 60 分钟执行一次
	ticker := time.NewTicker(60 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.runCleanup()
	}
}

// runCleanup 执行清理流程：先预标记即将过期的录像，再清理过期录像，最后处理磁盘空间
func (c Core) runCleanup() {
	c.markExpiringRecordings()
	c.cleanupExpiredRecordings()
	c.cleanupByDiskUsage()
}

// markExpiringRecordings 预标记 24 小时内即将过期的录像
func (c Core) markExpiringRecordings() {
	if c.conf.RetainDays <= 0 {
		return
	}

	ctx := context.Background()
	// 如果录像的 created_at < (now + 24h - retain_days)，则该录像将在 24 小时内过期
	expiryCutoff := time.Now().Add(24 * time.Hour).AddDate(0, 0, -c.conf.RetainDays)

	err := c.store.Recording().Session(ctx, func(tx *gorm.DB) error {
		return tx.Model(&Recording{}).
			Where("delete_flag = ?", false).
			Where("created_at < ?", orm.Time{Time: expiryCutoff}).
			Update("delete_flag", true).Error
	})
	if err != nil {
		slog.Warn("failed to mark expiring recordings", "err", err)
	}
}

// cleanupExpiredRecordings 清理超过保留天数的录像
func (c Core) cleanupExpiredRecordings() {
	if c.conf.RetainDays <= 0 {
		return
	}

	ctx := context.Background()
	cutoffTime := time.Now().AddDate(0, 0, -c.conf.RetainDays)

	totalDeleted, filesDeleted, failedFiles, freedBytes := c.batchDeleteRecordings(ctx,
		orm.Where("created_at < ?", orm.Time{Time: cutoffTime}),
	)

	if totalDeleted > 0 || failedFiles > 0 {
		slog.Info("expired recording cleanup completed",
			"reason", "retention_policy",
			"retain_days", c.conf.RetainDays,
			"cutoff_time", cutoffTime.Format(time.DateTime),
			"recordings_deleted", totalDeleted,
			"files_deleted", filesDeleted,
			"failed_files", failedFiles,
			"freed_bytes", freedBytes,
		)
	}
}

// cleanupByDiskUsage 基于磁盘使用率清理录像
// 当磁盘使用率超过阈值时，删除最旧的录像直到使用率降到阈值以下
func (c Core) cleanupByDiskUsage() {
	if c.conf.DiskUsageThreshold <= 0 || c.conf.DiskUsageThreshold >= 100 {
		return
	}

	root := c.files.Root()
	usage, err := getDiskUsage(root)
	if err != nil {
		slog.Warn("failed to get disk usage", "err", err)
		return
	}
	if usage < c.conf.DiskUsageThreshold {
		return
	}

	ctx := context.Background()

	var deletedCount, failedCount int
	var freedBytes int64
	batchSize := 50

	for {
		var oldest []*Recording
		pager := web.PagerFilter{Page: 1, Size: batchSize}
		_, err := c.store.Recording().Find(ctx, &oldest, &pager,
			orm.OrderBy("created_at ASC"),
		)
		if err != nil || len(oldest) == 0 {
			break
		}

		var deleteIDs []int64
		for _, rec := range oldest {
			if err := c.files.Remove(rec.Path); err != nil {
				failedCount++
			} else {
				freedBytes += rec.Size
			}
			deleteIDs = append(deleteIDs, rec.ID)
		}

		if len(deleteIDs) > 0 {
			err := c.store.Recording().Session(ctx, func(tx *gorm.DB) error {
				return tx.Where("id IN ?", deleteIDs).Delete(&Recording{}).Error
			})
			if err != nil {
				slog.Warn("failed to delete recording batch", "count", len(deleteIDs), "err", err)
				break
			}
			deletedCount += len(deleteIDs)
		}

		usage, err = getDiskUsage(root)
		if err != nil || usage < c.conf.DiskUsageThreshold {
			break
		}
	}

	cleanupEmptyDirs(root)

	if deletedCount > 0 || failedCount > 0 {
		slog.Info("disk usage cleanup completed",
			"reason", "disk_threshold_exceeded",
			"usage", usage,
			"threshold", c.conf.DiskUsageThreshold,
			"recordings_deleted", deletedCount,
			"failed_files", failedCount,
			"freed_bytes", freedBytes,
		)
	}
}

// batchDeleteRecordings 批量删除录像（文件+数据库记录）
func (c Core) batchDeleteRecordings(ctx context.Context, conditions ...orm.QueryOption) (totalDeleted, filesDeleted, failedFiles int, freedBytes int64) {
	batchSize := 100

	for {
		var recordings []*Recording
		pager := web.PagerFilter{Page: 1, Size: batchSize}
		_, err := c.store.Recording().Find(ctx, &recordings, &pager, conditions...)
		if err != nil || len(recordings) == 0 {
			break
		}

		var deleteIDs []int64
		for _, rec := range recordings {
			if err := c.files.Remove(rec.Path); err != nil {
				failedFiles++
			} else {
				filesDeleted++
				freedBytes += rec.Size
			}
			deleteIDs = append(deleteIDs, rec.ID)
		}

		if len(deleteIDs) > 0 {
			err = c.store.Recording().Session(ctx, func(tx *gorm.DB) error {
				return tx.Where("id IN ?", deleteIDs).Delete(&Recording{}).Error
			})
			// 删库失败时下一轮会查出同一批记录，必须中止，留待下个周期重试
			if err != nil {
				slog.Warn("failed to delete recording batch", "count", len(deleteIDs), "err", err)
				break
			}
			totalDeleted += len(deleteIDs)
		}
	}

	cleanupEmptyDirs(c.files.Root())
	return
}

// getDiskUsage 获取指定路径所在磁盘的使用率（百分比）
func getDiskUsage(path string) (float64, error) {
	stat, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return stat.UsedPercent, nil
}

// cleanupEmptyDirs 递归删除空目录
func cleanupEmptyDirs(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			subDir := filepath.Join(dir, entry.Name())
			cleanupEmptyDirs(subDir)

			subEntries, err := os.ReadDir(subDir)
			if err == nil && len(subEntries) == 0 {
				_ = os.Remove(subDir)
			}
		}
	}
}
