package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// uniqueViolation PostgreSQL 唯一约束冲突的 SQLSTATE
const uniqueViolation = "23505"

// IsUniqueViolation 判断错误是否为唯一键冲突。
// 同时识别 gorm 的翻译错误和底层 pgconn 错误，
// 互动写路径据此把并发重复插入兜底成“返回已有行”。
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
