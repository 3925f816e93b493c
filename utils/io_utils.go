package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// SafeSaveToFile hands fn a writer on a temp file next to dst and moves the
// temp file over dst only when fn succeeds.
func SafeSaveToFile(dst string, fn func(w io.Writer) error) error {
	// 临时文件与目标文件放在同一目录, 保证rename是原子操作, 失败时不会留下半截文件
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory failed: %w", err)
	}
	dstTmp := TempFileName(dst)
	f, err := os.OpenFile(dstTmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create tmp file failed: %w", err)
	}
	defer os.Remove(dstTmp)
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close tmp file failed: %w", err)
	}
	if err := os.Rename(dstTmp, dst); err != nil {
		return fmt.Errorf("rename tmp file to target failed: %w", err)
	}
	return nil
}

func TempFileName(dst string) string {
	return dst + "." + uuid.NewString() + ".temp"
}
