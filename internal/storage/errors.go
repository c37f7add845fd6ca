package storage

import (
	"errors"
	"strings"

	"github.com/minio/minio-go/v7"
)

// IsNoSuchKey 判断错误是否表示对象不存在（S3/MinIO: NoSuchKey/NotFound）。
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}

	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		switch strings.ToLower(strings.TrimSpace(minioErr.Code)) {
		case "nosuchkey", "notfound":
			return true
		}
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "nosuchkey") ||
		strings.Contains(lower, "specified key does not exist")
}

// ExportKey 返回导出 PDF 的对象键：exports/<profile>/<id>.pdf。
func ExportKey(profile, id string) string {
	return ExportPrefix(profile) + id + ".pdf"
}

// ExportPrefix 返回某个浏览器档案的导出目录。
func ExportPrefix(profile string) string {
	return "exports/" + profile + "/"
}
