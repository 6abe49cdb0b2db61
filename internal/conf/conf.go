// Package conf 全局配置，TOML 文件加载
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration 配置文件中的时长字段，形如 "30s"、"5m"
type Duration string

// Duration 解析为 time.Duration，解析失败返回 0
func (d Duration) Duration() time.Duration {
	v, err := time.ParseDuration(string(d))
	if err != nil {
		return 0
	}
	return v
}

type Bootstrap struct {
	Debug    bool     `toml:"debug"`
	Server   Server   `toml:"server"`
	Data     Data     `toml:"data"`
	Vision   Vision   `toml:"vision"`
	Analysis Analysis `toml:"analysis"`

	// 运行时字段，不落盘
	ConfigPath   string `toml:"-"`
	BuildVersion string `toml:"-"`
}

type Server struct {
	HTTP      HTTP            `toml:"http"`
	Username  string          `toml:"username"`
	Password  string          `toml:"password"`
	Recording ServerRecording `toml:"recording"`
}

type HTTP struct {
	Port      int    `toml:"port"`
	JwtSecret string `toml:"jwt_secret"`
	PProf     PProf  `toml:"pprof"`
}

// PProf /debug/pprof 开关与访问白名单
type PProf struct {
	Enabled   bool     `toml:"enabled"`
	AccessIps []string `toml:"access_ips"`
}

// ServerRecording 录像存储与保留策略
type ServerRecording struct {
	StorageDir         string  `toml:"storage_dir"`
	CleanupDisabled    bool    `toml:"cleanup_disabled"`
	RetainDays         int     `toml:"retain_days"`          // 0 表示不按天数清理
	DiskUsageThreshold float64 `toml:"disk_usage_threshold"` // 磁盘使用率百分比，超过则清理最旧录像
}

type Data struct {
	Database Database `toml:"database"`
}

type Database struct {
	Dsn             string   `toml:"dsn"`
	MaxIdleConns    int32    `toml:"max_idle_conns"`
	MaxOpenConns    int32    `toml:"max_open_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
	SlowThreshold   Duration `toml:"slow_threshold"`
	AutoMigrate     bool     `toml:"auto_migrate"`
}

// Vision 检测模型参数
type Vision struct {
	ModelDir    string  `toml:"model_dir"`
	ScoreThresh float64 `toml:"score_thresh"`
	IOUThresh   float64 `toml:"iou_thresh"`
}

// Analysis 录像复扫采样参数
type Analysis struct {
	SampleFPS int `toml:"sample_fps"` // 采样帧率，默认 2
	Width     int `toml:"width"`      // 解码输出宽度，与模型输入一致
	Height    int `toml:"height"`
}

// SetupConfig 加载配置文件
// 文件不存在时写出默认配置再加载，方便首次部署
func SetupConfig(path string) (*Bootstrap, error) {
	bc := defaultBootstrap()
	bc.ConfigPath = path
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := WriteConfig(bc, path); err != nil {
			return nil, err
		}
		return bc, nil
	}
	if err := toml.Unmarshal(data, bc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return bc, nil
}

// WriteConfig 把配置写回文件
func WriteConfig(bc *Bootstrap, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	data, err := toml.Marshal(bc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func defaultBootstrap() *Bootstrap {
	return &Bootstrap{
		Server: Server{
			HTTP: HTTP{
				Port:      8080,
				JwtSecret: "change-me",
			},
			Recording: ServerRecording{
				StorageDir:         "./storage",
				RetainDays:         30,
				DiskUsageThreshold: 90,
			},
		},
		Data: Data{
			Database: Database{
				Dsn:             "kestrel.db",
				MaxIdleConns:    10,
				MaxOpenConns:    50,
				ConnMaxLifetime: "30m",
				SlowThreshold:   "200ms",
				AutoMigrate:     true,
			},
		},
		Vision: Vision{
			ModelDir:    "./models",
			ScoreThresh: 0.45,
			IOUThresh:   0.5,
		},
		Analysis: Analysis{
			SampleFPS: 2,
			Width:     640,
			Height:    480,
		},
	}
}
