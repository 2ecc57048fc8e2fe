/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package dualmigrate

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/acronis/go-appkit/config"
	"gopkg.in/yaml.v3"
)

const cfgDefaultKeyPrefix = "migration"

// Relative configuration keys within a backend section ("primary." or "analytics.").
const (
	cfgKeyDialect         = "dialect"
	cfgKeyMaxIdleConns    = "maxIdleConns"
	cfgKeyMaxOpenConns    = "maxOpenConns"
	cfgKeyConnMaxLifetime = "connMaxLifeTime"
	cfgKeyHistoryTable    = "historyTable"

	cfgKeyMySQLHost     = "mysql.host"
	cfgKeyMySQLPort     = "mysql.port"
	cfgKeyMySQLDatabase = "mysql.database"
	cfgKeyMySQLUser     = "mysql.user"
	cfgKeyMySQLPassword = "mysql.password" //nolint: gosec
	cfgKeyMySQLTxLevel  = "mysql.txLevel"

	cfgKeySQLitePath = "sqlite3.path"

	cfgKeyPostgresHost             = "postgres.host"
	cfgKeyPostgresPort             = "postgres.port"
	cfgKeyPostgresDatabase         = "postgres.database"
	cfgKeyPostgresUser             = "postgres.user"
	cfgKeyPostgresPassword         = "postgres.password" //nolint: gosec
	cfgKeyPostgresTxLevel          = "postgres.txLevel"
	cfgKeyPostgresSSLMode          = "postgres.sslMode"
	cfgKeyPostgresSearchPath       = "postgres.searchPath"
	cfgKeyPostgresAdditionalParams = "postgres.additionalParameters"

	cfgKeyClickHouseHost             = "clickhouse.host"
	cfgKeyClickHousePort             = "clickhouse.port"
	cfgKeyClickHouseDatabase         = "clickhouse.database"
	cfgKeyClickHouseUser             = "clickhouse.user"
	cfgKeyClickHousePassword         = "clickhouse.password" //nolint: gosec
	cfgKeyClickHouseSecure           = "clickhouse.secure"
	cfgKeyClickHouseAdditionalParams = "clickhouse.additionalParameters"
)

// Backend section names within the configuration.
const (
	cfgSectionPrimary   = "primary"
	cfgSectionAnalytics = "analytics"
)

// Config represents configuration parameters for both migration backends.
type Config struct {
	Primary   BackendConfig `mapstructure:"primary" yaml:"primary" json:"primary"`
	Analytics BackendConfig `mapstructure:"analytics" yaml:"analytics" json:"analytics"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*configOptions)

type configOptions struct {
	keyPrefix string
}

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
// This prefix will be used by config.Loader.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(o *configOptions) {
		o.keyPrefix = keyPrefix
	}
}

// NewConfig creates a new instance of the Config.
func NewConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{keyPrefix: opts.keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{
		keyPrefix: opts.keyPrefix,
		Primary:   NewDefaultBackendConfig(),
		Analytics: NewDefaultBackendConfig(),
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	setBackendProviderDefaults(dp, cfgSectionPrimary)
	setBackendProviderDefaults(dp, cfgSectionAnalytics)
}

// Set sets configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	if err := c.Primary.set(dp, cfgSectionPrimary); err != nil {
		return err
	}
	return c.Analytics.set(dp, cfgSectionAnalytics)
}

// BackendConfig represents configuration parameters for a single migration backend.
type BackendConfig struct {
	Dialect         Dialect             `mapstructure:"dialect" yaml:"dialect" json:"dialect"`
	MaxOpenConns    int                 `mapstructure:"maxOpenConns" yaml:"maxOpenConns" json:"maxOpenConns"`
	MaxIdleConns    int                 `mapstructure:"maxIdleConns" yaml:"maxIdleConns" json:"maxIdleConns"`
	ConnMaxLifetime config.TimeDuration `mapstructure:"connMaxLifeTime" yaml:"connMaxLifeTime" json:"connMaxLifeTime"`
	HistoryTable    string              `mapstructure:"historyTable" yaml:"historyTable" json:"historyTable"`
	MySQL           MySQLConfig         `mapstructure:"mysql" yaml:"mysql" json:"mysql"`
	SQLite          SQLiteConfig        `mapstructure:"sqlite3" yaml:"sqlite3" json:"sqlite3"`
	Postgres        PostgresConfig      `mapstructure:"postgres" yaml:"postgres" json:"postgres"`
	ClickHouse      ClickHouseConfig    `mapstructure:"clickhouse" yaml:"clickhouse" json:"clickhouse"`
}

// NewDefaultBackendConfig creates a new BackendConfig with default values.
func NewDefaultBackendConfig() BackendConfig {
	return BackendConfig{
		MaxOpenConns:    DefaultMaxOpenConns,
		MaxIdleConns:    DefaultMaxIdleConns,
		ConnMaxLifetime: config.TimeDuration(DefaultConnMaxLifetime),
		MySQL: MySQLConfig{
			TxIsolationLevel: IsolationLevel(MySQLDefaultTxLevel),
		},
		Postgres: PostgresConfig{
			TxIsolationLevel: IsolationLevel(PostgresDefaultTxLevel),
			SSLMode:          PostgresDefaultSSLMode,
		},
	}
}

// SupportedDialects returns the list of dialects the engine can connect to.
func SupportedDialects() []Dialect {
	return []Dialect{DialectSQLite, DialectMySQL, DialectPostgres, DialectPgx, DialectClickHouse}
}

// MySQLConfig represents a set of configuration parameters for working with MySQL.
type MySQLConfig struct {
	Host             string         `mapstructure:"host" yaml:"host" json:"host"`
	Port             int            `mapstructure:"port" yaml:"port" json:"port"`
	User             string         `mapstructure:"user" yaml:"user" json:"user"`
	Password         string         `mapstructure:"password" yaml:"password" json:"password"`
	Database         string         `mapstructure:"database" yaml:"database" json:"database"`
	TxIsolationLevel IsolationLevel `mapstructure:"txLevel" yaml:"txLevel" json:"txLevel"`
}

// SQLiteConfig represents a set of configuration parameters for working with SQLite.
type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

// PostgresConfig represents a set of configuration parameters for working with Postgres.
type PostgresConfig struct {
	Host                 string            `mapstructure:"host" yaml:"host" json:"host"`
	Port                 int               `mapstructure:"port" yaml:"port" json:"port"`
	User                 string            `mapstructure:"user" yaml:"user" json:"user"`
	Password             string            `mapstructure:"password" yaml:"password" json:"password"`
	Database             string            `mapstructure:"database" yaml:"database" json:"database"`
	TxIsolationLevel     IsolationLevel    `mapstructure:"txLevel" yaml:"txLevel" json:"txLevel"`
	SSLMode              PostgresSSLMode   `mapstructure:"sslMode" yaml:"sslMode" json:"sslMode"`
	SearchPath           string            `mapstructure:"searchPath" yaml:"searchPath" json:"searchPath"`
	AdditionalParameters map[string]string `mapstructure:"additionalParameters" yaml:"additionalParameters" json:"additionalParameters"`
}

// ClickHouseConfig represents a set of configuration parameters for working with ClickHouse.
type ClickHouseConfig struct {
	Host                 string            `mapstructure:"host" yaml:"host" json:"host"`
	Port                 int               `mapstructure:"port" yaml:"port" json:"port"`
	User                 string            `mapstructure:"user" yaml:"user" json:"user"`
	Password             string            `mapstructure:"password" yaml:"password" json:"password"`
	Database             string            `mapstructure:"database" yaml:"database" json:"database"`
	Secure               bool              `mapstructure:"secure" yaml:"secure" json:"secure"`
	AdditionalParameters map[string]string `mapstructure:"additionalParameters" yaml:"additionalParameters" json:"additionalParameters"`
}

// TxIsolationLevel returns transaction isolation level from parsed config for the configured dialect.
func (c *BackendConfig) TxIsolationLevel() sql.IsolationLevel {
	switch c.Dialect {
	case DialectMySQL:
		return sql.IsolationLevel(c.MySQL.TxIsolationLevel)
	case DialectPostgres, DialectPgx:
		return sql.IsolationLevel(c.Postgres.TxIsolationLevel)
	}
	return sql.LevelDefault
}

// DriverNameAndDSN returns driver name and DSN for connecting.
func (c *BackendConfig) DriverNameAndDSN() (driverName, dsn string) {
	switch c.Dialect {
	case DialectMySQL:
		return "mysql", MakeMySQLDSN(&c.MySQL)
	case DialectSQLite:
		return "sqlite3", MakeSQLiteDSN(&c.SQLite)
	case DialectPostgres:
		return "postgres", MakePostgresDSN(&c.Postgres)
	case DialectPgx:
		return "pgx", MakePostgresDSN(&c.Postgres)
	case DialectClickHouse:
		return "clickhouse", MakeClickHouseDSN(&c.ClickHouse)
	}
	return "", ""
}

func setBackendProviderDefaults(dp config.DataProvider, section string) {
	dp.SetDefault(cfgKey(section, cfgKeyMaxOpenConns), DefaultMaxOpenConns)
	dp.SetDefault(cfgKey(section, cfgKeyMaxIdleConns), DefaultMaxIdleConns)
	dp.SetDefault(cfgKey(section, cfgKeyConnMaxLifetime), DefaultConnMaxLifetime)
	dp.SetDefault(cfgKey(section, cfgKeyMySQLTxLevel), MySQLDefaultTxLevel.String())
	dp.SetDefault(cfgKey(section, cfgKeyPostgresTxLevel), PostgresDefaultTxLevel.String())
	dp.SetDefault(cfgKey(section, cfgKeyPostgresSSLMode), string(PostgresDefaultSSLMode))
}

func (c *BackendConfig) set(dp config.DataProvider, section string) error {
	var err error

	if err = c.setDialectSpecificConfig(dp, section); err != nil {
		return err
	}

	var maxOpenConns int
	if maxOpenConns, err = dp.GetInt(cfgKey(section, cfgKeyMaxOpenConns)); err != nil {
		return err
	}
	if maxOpenConns < 0 {
		return dp.WrapKeyErr(cfgKey(section, cfgKeyMaxOpenConns), fmt.Errorf("must be positive"))
	}
	var maxIdleConns int
	if maxIdleConns, err = dp.GetInt(cfgKey(section, cfgKeyMaxIdleConns)); err != nil {
		return err
	}
	if maxIdleConns < 0 {
		return dp.WrapKeyErr(cfgKey(section, cfgKeyMaxIdleConns), fmt.Errorf("must be positive"))
	}
	if maxIdleConns > 0 && maxOpenConns > 0 && maxIdleConns > maxOpenConns {
		return dp.WrapKeyErr(cfgKey(section, cfgKeyMaxIdleConns), fmt.Errorf("must be less than %s", cfgKeyMaxOpenConns))
	}
	c.MaxOpenConns = maxOpenConns
	c.MaxIdleConns = maxIdleConns

	var connMaxLifeTime time.Duration
	if connMaxLifeTime, err = dp.GetDuration(cfgKey(section, cfgKeyConnMaxLifetime)); err != nil {
		return err
	}
	c.ConnMaxLifetime = config.TimeDuration(connMaxLifeTime)

	if c.HistoryTable, err = dp.GetString(cfgKey(section, cfgKeyHistoryTable)); err != nil {
		return err
	}

	return nil
}

func (c *BackendConfig) setDialectSpecificConfig(dp config.DataProvider, section string) error {
	var err error

	var supportedDialectsStr []string
	for _, dialect := range SupportedDialects() {
		supportedDialectsStr = append(supportedDialectsStr, string(dialect))
	}
	var dialectStr string
	if dialectStr, err = dp.GetStringFromSet(cfgKey(section, cfgKeyDialect), supportedDialectsStr, false); err != nil {
		return err
	}
	c.Dialect = Dialect(dialectStr)

	switch c.Dialect {
	case DialectMySQL:
		err = c.setMySQLConfig(dp, section)
	case DialectSQLite:
		err = c.setSQLiteConfig(dp, section)
	case DialectPostgres, DialectPgx:
		err = c.setPostgresConfig(dp, section, c.Dialect)
	case DialectClickHouse:
		err = c.setClickHouseConfig(dp, section)
	}
	return err
}

// nolint: dupl
func (c *BackendConfig) setMySQLConfig(dp config.DataProvider, section string) error {
	var err error

	if c.MySQL.Host, err = dp.GetString(cfgKey(section, cfgKeyMySQLHost)); err != nil {
		return err
	}
	if c.MySQL.Port, err = dp.GetInt(cfgKey(section, cfgKeyMySQLPort)); err != nil {
		return err
	}
	if c.MySQL.User, err = dp.GetString(cfgKey(section, cfgKeyMySQLUser)); err != nil {
		return err
	}
	if c.MySQL.Password, err = dp.GetString(cfgKey(section, cfgKeyMySQLPassword)); err != nil {
		return err
	}
	if c.MySQL.Database, err = dp.GetString(cfgKey(section, cfgKeyMySQLDatabase)); err != nil {
		return err
	}
	if c.MySQL.TxIsolationLevel, err = getIsolationLevel(dp, cfgKey(section, cfgKeyMySQLTxLevel)); err != nil {
		return err
	}

	return nil
}

// nolint: dupl
func (c *BackendConfig) setPostgresConfig(dp config.DataProvider, section string, dialect Dialect) error {
	var err error

	if c.Postgres.Host, err = dp.GetString(cfgKey(section, cfgKeyPostgresHost)); err != nil {
		return err
	}
	if c.Postgres.Port, err = dp.GetInt(cfgKey(section, cfgKeyPostgresPort)); err != nil {
		return err
	}
	if c.Postgres.User, err = dp.GetString(cfgKey(section, cfgKeyPostgresUser)); err != nil {
		return err
	}
	if c.Postgres.Password, err = dp.GetString(cfgKey(section, cfgKeyPostgresPassword)); err != nil {
		return err
	}
	if c.Postgres.Database, err = dp.GetString(cfgKey(section, cfgKeyPostgresDatabase)); err != nil {
		return err
	}
	if c.Postgres.SearchPath, err = dp.GetString(cfgKey(section, cfgKeyPostgresSearchPath)); err != nil {
		return err
	}
	if c.Postgres.TxIsolationLevel, err = getIsolationLevel(dp, cfgKey(section, cfgKeyPostgresTxLevel)); err != nil {
		return err
	}

	var additionalParams map[string]string
	if additionalParams, err = dp.GetStringMapString(cfgKey(section, cfgKeyPostgresAdditionalParams)); err != nil {
		return err
	}
	if len(additionalParams) != 0 {
		c.Postgres.AdditionalParameters = additionalParams
	}
	// Force to add Patroni readonly replica-aware parameter (only for pgx driver).
	// Don't override already added parameter.
	if dialect == DialectPgx {
		if _, ok := c.Postgres.AdditionalParameters[PgTargetSessionAttrs]; !ok {
			if c.Postgres.AdditionalParameters == nil {
				c.Postgres.AdditionalParameters = make(map[string]string)
			}
			c.Postgres.AdditionalParameters[PgTargetSessionAttrs] = PgReadWriteParam
		}
	}

	availableSSLModesStr := []string{
		string(PostgresSSLModeDisable),
		string(PostgresSSLModeRequire),
		string(PostgresSSLModeVerifyCA),
		string(PostgresSSLModeVerifyFull),
	}
	gotSSLModeStr, err := dp.GetStringFromSet(cfgKey(section, cfgKeyPostgresSSLMode), availableSSLModesStr, false)
	if err != nil {
		return err
	}
	c.Postgres.SSLMode = PostgresSSLMode(gotSSLModeStr)

	return nil
}

// nolint: dupl
func (c *BackendConfig) setClickHouseConfig(dp config.DataProvider, section string) error {
	var err error

	if c.ClickHouse.Host, err = dp.GetString(cfgKey(section, cfgKeyClickHouseHost)); err != nil {
		return err
	}
	if c.ClickHouse.Port, err = dp.GetInt(cfgKey(section, cfgKeyClickHousePort)); err != nil {
		return err
	}
	if c.ClickHouse.User, err = dp.GetString(cfgKey(section, cfgKeyClickHouseUser)); err != nil {
		return err
	}
	if c.ClickHouse.Password, err = dp.GetString(cfgKey(section, cfgKeyClickHousePassword)); err != nil {
		return err
	}
	if c.ClickHouse.Database, err = dp.GetString(cfgKey(section, cfgKeyClickHouseDatabase)); err != nil {
		return err
	}
	if c.ClickHouse.Secure, err = dp.GetBool(cfgKey(section, cfgKeyClickHouseSecure)); err != nil {
		return err
	}
	var additionalParams map[string]string
	if additionalParams, err = dp.GetStringMapString(cfgKey(section, cfgKeyClickHouseAdditionalParams)); err != nil {
		return err
	}
	if len(additionalParams) != 0 {
		c.ClickHouse.AdditionalParameters = additionalParams
	}

	return nil
}

func (c *BackendConfig) setSQLiteConfig(dp config.DataProvider, section string) error {
	var err error

	if c.SQLite.Path, err = dp.GetString(cfgKey(section, cfgKeySQLitePath)); err != nil {
		return err
	}

	return nil
}

func cfgKey(section, key string) string {
	return section + "." + key
}

func getIsolationLevel(dp config.DataProvider, key string) (IsolationLevel, error) {
	s, err := dp.GetString(key)
	if err != nil {
		return IsolationLevel(sql.LevelDefault), err
	}
	return getTxIsolationLevelFromString(s)
}

// IsolationLevel is a config-friendly representation of sql.IsolationLevel.
type IsolationLevel sql.IsolationLevel

// UnmarshalJSON allows decoding string representation of isolation level from JSON.
// Implements json.Unmarshaler interface.
func (il *IsolationLevel) UnmarshalJSON(data []byte) error {
	level, err := getTxIsolationLevelFromString(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*il = level
	return nil
}

// UnmarshalYAML allows decoding from YAML.
// Implements yaml.Unmarshaler interface.
func (il *IsolationLevel) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid isolation level: %w", err)
	}
	level, err := getTxIsolationLevelFromString(s)
	if err != nil {
		return err
	}
	*il = level
	return nil
}

// UnmarshalText allows decoding from text.
// Implements encoding.TextUnmarshaler interface, which is used by mapstructure.TextUnmarshallerHookFunc.
func (il *IsolationLevel) UnmarshalText(text []byte) error {
	return il.UnmarshalJSON(text)
}

// String returns the human-readable string representation.
// Implements fmt.Stringer interface.
func (il IsolationLevel) String() string {
	return sql.IsolationLevel(il).String()
}

// MarshalJSON encodes as a human-readable string in JSON.
// Implements json.Marshaler interface.
func (il IsolationLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(il.String())
}

// MarshalYAML encodes as a human-readable string in YAML.
// Implements yaml.Marshaler interface.
func (il IsolationLevel) MarshalYAML() (interface{}, error) {
	return il.String(), nil
}

// MarshalText encodes as a human-readable string in text.
// Implements encoding.TextMarshaler interface.
func (il *IsolationLevel) MarshalText() ([]byte, error) {
	return []byte(il.String()), nil
}

var availableTxIsolationLevelsMap = prepareAvailableTxIsolationLevelsStr()

func prepareAvailableTxIsolationLevelsStr() map[string]IsolationLevel {
	availableLevels := []sql.IsolationLevel{
		sql.LevelReadUncommitted,
		sql.LevelReadCommitted,
		sql.LevelRepeatableRead,
		sql.LevelSerializable,
	}
	m := make(map[string]IsolationLevel, len(availableLevels))
	for _, level := range availableLevels {
		m[level.String()] = IsolationLevel(level)
	}
	return m
}

func getTxIsolationLevelFromString(s string) (IsolationLevel, error) {
	level, ok := availableTxIsolationLevelsMap[s]
	if !ok {
		return IsolationLevel(sql.LevelDefault), fmt.Errorf("invalid isolation level: %s", s)
	}
	return level, nil
}
