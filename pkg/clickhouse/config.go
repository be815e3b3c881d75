package clickhouse

import "time"

// Option configures Client.
type Option func(*Options)

// Options holds connection settings for the ClickHouse pool.
type Options struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	HTTP            bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	Settings        Settings
}

// Settings are server-side query settings appended to the DSN.
type Settings struct {
	AsyncInsert      bool
	WaitAsyncInsert  bool
	MaxExecutionTime time.Duration
}

func defaultOptions() Options {
	return Options{
		Port:            9000,
		Database:        "default",
		User:            "default",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     10 * time.Second,
	}
}

// WithAddr sets the server host and port. A non-positive port keeps the default.
func WithAddr(host string, port int) Option {
	return func(o *Options) {
		o.Host = host
		if port > 0 {
			o.Port = port
		}
	}
}

// WithDatabase sets the database used for unqualified table names.
func WithDatabase(database string) Option {
	return func(o *Options) { o.Database = database }
}

// WithCredentials sets username and password.
func WithCredentials(user, password string) Option {
	return func(o *Options) {
		o.User = user
		o.Password = password
	}
}

// WithHTTP switches from the native protocol to the HTTP interface.
func WithHTTP(enabled bool) Option {
	return func(o *Options) { o.HTTP = enabled }
}

// WithPool sizes the database/sql pool. Zero values keep the defaults.
func WithPool(maxOpen, maxIdle int, lifetime time.Duration) Option {
	return func(o *Options) {
		if maxOpen > 0 {
			o.MaxOpenConns = maxOpen
		}
		if maxIdle > 0 {
			o.MaxIdleConns = maxIdle
		}
		if lifetime > 0 {
			o.ConnMaxLifetime = lifetime
		}
	}
}

// WithTimeouts sets dial and read timeouts. Zero values keep the defaults.
func WithTimeouts(dial, read time.Duration) Option {
	return func(o *Options) {
		if dial > 0 {
			o.DialTimeout = dial
		}
		if read > 0 {
			o.ReadTimeout = read
		}
	}
}

// WithSettings replaces the server-side query settings.
func WithSettings(s Settings) Option {
	return func(o *Options) { o.Settings = s }
}
