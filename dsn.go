/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package dualmigrate

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MakeMySQLDSN makes DSN for opening MySQL database.
func MakeMySQLDSN(cfg *MySQLConfig) string {
	c := mysql.NewConfig()
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.DBName = cfg.Database
	c.ParseTime = true
	c.MultiStatements = true
	c.Params = make(map[string]string)
	c.Params["autocommit"] = "false"
	return c.FormatDSN()
}

// MakePostgresDSN makes DSN for opening Postgres database.
func MakePostgresDSN(cfg *PostgresConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = PostgresDefaultSSLMode
	}
	connURI := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     cfg.Database,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(string(sslMode))),
	}
	if cfg.SearchPath != "" {
		connURI.RawQuery += fmt.Sprintf("&search_path=%s", url.QueryEscape(cfg.SearchPath))
	}
	if len(cfg.AdditionalParameters) == 0 {
		return connURI.String()
	}

	ignore := map[string]struct{}{
		"sslmode": {},
	}
	if cfg.SearchPath != "" {
		ignore["search_path"] = struct{}{}
	}

	return urlWithOptionalParameters(connURI, cfg.AdditionalParameters, ignore)
}

// MakeSQLiteDSN makes DSN for opening SQLite database.
func MakeSQLiteDSN(cfg *SQLiteConfig) string {
	// Connection params will be used here in the future.
	return cfg.Path
}

// MakeClickHouseDSN makes DSN for opening ClickHouse database.
func MakeClickHouseDSN(cfg *ClickHouseConfig) string {
	secure := "false"
	if cfg.Secure {
		secure = "true"
	}
	connURI := url.URL{
		Scheme:   "clickhouse",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     cfg.Database,
		RawQuery: fmt.Sprintf("secure=%s", secure),
	}
	if len(cfg.AdditionalParameters) == 0 {
		return connURI.String()
	}

	return urlWithOptionalParameters(connURI, cfg.AdditionalParameters,
		map[string]struct{}{
			"secure": {},
		})
}

func urlWithOptionalParameters(
	u url.URL,
	params map[string]string,
	keysToIgnore map[string]struct{},
) string {
	queryParts := make([]string, 0, len(params))
	for k, v := range params {
		if _, ok := keysToIgnore[k]; ok {
			continue
		}
		queryParts = append(queryParts, fmt.Sprintf("%s=%s", k, url.QueryEscape(v)))
	}
	sort.Strings(queryParts) // Sort to make DSN deterministic.
	u.RawQuery += "&" + strings.Join(queryParts, "&")
	return u.String()
}
