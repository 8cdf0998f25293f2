package app

import (
	"bytes"
	"strings"
	"testing"
)

// TestRun_ServeCommand_FailsWithoutDatabase はDBに接続できない場合にserveが起動せずエラーを返すことを検証する。
func TestRun_ServeCommand_FailsWithoutDatabase(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run(serve) should fail when the database is unreachable")
	}
	if !strings.Contains(err.Error(), "database") {
		t.Errorf("error = %v, want database related error", err)
	}
	if strings.Contains(buf.String(), "secret") {
		t.Errorf("database password leaked into logs: %s", buf.String())
	}
}

// TestRun_DefaultCommand_FailsWithoutDatabase はデフォルトコマンド（serve）も同様に失敗することを検証する。
func TestRun_DefaultCommand_FailsWithoutDatabase(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	if err := Run(&buf, []string{}); err == nil {
		t.Fatal("Run([]) should fail when the database is unreachable")
	}
}

// TestRun_MigrateCommand_FailsWithoutDatabase はmigrateがDB接続エラーを返すことを検証する。
func TestRun_MigrateCommand_FailsWithoutDatabase(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"migrate"})
	if err == nil {
		t.Fatal("Run(migrate) should fail when the database is unreachable")
	}
	if !strings.Contains(err.Error(), "migration failed") {
		t.Errorf("error = %v, want migration error", err)
	}
}

func TestRun_WithInvalidEnv_ReturnsError(t *testing.T) {
	setTestEnv(t)
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "0")

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run with invalid env should return error")
	}
	if !strings.Contains(err.Error(), "initialization failed") {
		t.Errorf("error = %v, want initialization error", err)
	}
}

// TestRun_HealthcheckCommand_SkipsInit はhealthcheckが設定読み込みを行わないことを検証する。
// 不正な設定でもInitのエラーにはならず、接続エラーが返る。
func TestRun_HealthcheckCommand_SkipsInit(t *testing.T) {
	setTestEnv(t)
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "0")
	t.Setenv("SERVER_PORT", "1")

	var buf bytes.Buffer
	err := Run(&buf, []string{"healthcheck"})
	if err == nil {
		t.Fatal("healthcheck against a closed port should fail")
	}
	if strings.Contains(err.Error(), "initialization failed") {
		t.Errorf("healthcheck should skip Init, got %v", err)
	}
}
