package conf

import (
	"fmt"
	"time"
)

type Bootstrap struct {
	Server  *Server  `yaml:"server" json:"server"`
	Data    *Data    `yaml:"data" json:"data"`
	Client  *Client  `yaml:"client" json:"client"`
	Sweeper *Sweeper `yaml:"sweeper" json:"sweeper"`
	Log     *Log     `yaml:"log" json:"log"`
}

type Server struct {
	Http struct {
		Addr    string `yaml:"addr" json:"addr"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"http" json:"http"`
}

type Data struct {
	Database struct {
		Driver          string `yaml:"driver" json:"driver"`
		Source          string `yaml:"source" json:"source"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	} `yaml:"database" json:"database"`
	Redis struct {
		Addr         string `yaml:"addr" json:"addr"`
		Password     string `yaml:"password" json:"password"`
		Db           int32  `yaml:"db" json:"db"`
		ReadTimeout  string `yaml:"read_timeout" json:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout" json:"write_timeout"`
		DialTimeout  string `yaml:"dial_timeout" json:"dial_timeout"`
		PoolSize     int32  `yaml:"pool_size" json:"pool_size"`
	} `yaml:"redis" json:"redis"`
}

type Client struct {
	UserService *UserService `yaml:"user_service" json:"user_service"`
	PayGateway  *PayGateway  `yaml:"pay_gateway" json:"pay_gateway"`
}

type UserService struct {
	Addr    string `yaml:"addr" json:"addr"`
	Timeout string `yaml:"timeout" json:"timeout"`
}

type PayGateway struct {
	BaseUrl string `yaml:"base_url" json:"base_url"`
}

type Sweeper struct {
	// ExpireSpec 过期订单清理 cron 表达式 (秒级)
	ExpireSpec string `yaml:"expire_spec" json:"expire_spec"`
	// SyncRetrySpec VIP同步重试 cron 表达式 (秒级)
	SyncRetrySpec string `yaml:"sync_retry_spec" json:"sync_retry_spec"`
}

type Log struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	Output     string `yaml:"output" json:"output"`
	FilePath   string `yaml:"file_path" json:"file_path"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// UserServiceTimeout 用户服务调用超时时间,默认 3s
func (c *Client) UserServiceTimeout() time.Duration {
	if c == nil || c.UserService == nil || c.UserService.Timeout == "" {
		return 3 * time.Second
	}
	d, err := time.ParseDuration(c.UserService.Timeout)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}
	return d
}

// Validate validates the configuration
func (b *Bootstrap) Validate() error {
	if b.Server == nil {
		return fmt.Errorf("server configuration is required")
	}
	if b.Server.Http.Addr == "" {
		return fmt.Errorf("server.http.addr is required")
	}
	if b.Data == nil {
		return fmt.Errorf("data configuration is required")
	}
	if b.Data.Database.Source == "" {
		return fmt.Errorf("data.database.source is required")
	}
	if b.Client == nil {
		return fmt.Errorf("client configuration is required")
	}
	if b.Client.UserService == nil || b.Client.UserService.Addr == "" {
		return fmt.Errorf("client.user_service.addr is required")
	}
	if b.Client.PayGateway == nil || b.Client.PayGateway.BaseUrl == "" {
		return fmt.Errorf("client.pay_gateway.base_url is required")
	}
	if b.Log == nil {
		return fmt.Errorf("log configuration is required")
	}
	return nil
}
