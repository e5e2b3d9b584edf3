package db

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestOpenGormWithDialector_Success(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectPing()

	dial := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true, // don't query @@version
	})

	gdb, err := OpenGormWithDialector(dial, nil)
	if err != nil {
		t.Fatalf("OpenGormWithDialector error: %v", err)
	}
	if gdb == nil {
		t.Fatalf("got nil gorm.DB")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOpenGormWithDialector_PingFails(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectPing().WillReturnError(errors.New("no ping"))

	dial := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	})

	gdb, err := OpenGormWithDialector(dial, nil)
	if err == nil {
		t.Fatalf("expected error, got nil (gdb=%v)", gdb)
	}
	if !strings.Contains(err.Error(), "no ping") {
		t.Fatalf("error should carry the cause: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOpenGorm_SQLite(t *testing.T) {
	gdb, err := OpenGorm(DriverSQLite, filepath.Join(t.TempDir(), "lending.db"), nil)
	if err != nil {
		t.Fatalf("OpenGorm sqlite: %v", err)
	}
	sqlDB, _ := gdb.DB()
	defer sqlDB.Close()
	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("max open conns = %d, want 1", got)
	}
	var one int
	if err := gdb.Raw("SELECT 1").Scan(&one).Error; err != nil || one != 1 {
		t.Fatalf("select 1: %d %v", one, err)
	}
}

func TestOpenGorm_UnknownDriver(t *testing.T) {
	if _, err := OpenGorm("postgres", "dsn", nil); err == nil || !strings.Contains(err.Error(), "postgres") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}
}

func TestLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l := NewLogger(log, 50*time.Millisecond)
	ctx := context.Background()
	fc := func() (string, int64) { return "SELECT * FROM loans", 3 }

	l.Trace(ctx, time.Now(), fc, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("record not found must not be logged: %s", buf.String())
	}

	l.Trace(ctx, time.Now(), fc, errors.New("deadlock"))
	if !strings.Contains(buf.String(), "gorm query failed") || !strings.Contains(buf.String(), "deadlock") {
		t.Fatalf("missing error log: %s", buf.String())
	}
	buf.Reset()

	l.Trace(ctx, time.Now().Add(-time.Second), fc, nil)
	if !strings.Contains(buf.String(), "gorm slow query") {
		t.Fatalf("missing slow query log: %s", buf.String())
	}
	buf.Reset()

	l.Trace(ctx, time.Now(), fc, nil)
	if buf.Len() != 0 {
		t.Fatalf("fast query logged at warn mode: %s", buf.String())
	}
	l.LogMode(logger.Info).Trace(ctx, time.Now(), fc, nil)
	if !strings.Contains(buf.String(), "level=DEBUG") {
		t.Fatalf("info mode should trace every query: %s", buf.String())
	}
	buf.Reset()

	l.LogMode(logger.Silent).Trace(ctx, time.Now(), fc, errors.New("boom"))
	if buf.Len() != 0 {
		t.Fatalf("silent mode logged: %s", buf.String())
	}
}
