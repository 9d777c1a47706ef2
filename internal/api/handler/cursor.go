package handler

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cuongbtq/job-scheduling/internal/domain"
	"github.com/cuongbtq/job-scheduling/internal/storage"
)

func DecodeJobCursor(cursorStr string) (*storage.JobCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, domain.NewValidationError("cursor", "is malformed")
	}

	parts := strings.Split(string(decoded), "|")
	if len(parts) != 2 {
		return nil, domain.NewValidationError("cursor", "is malformed")
	}

	startDate, err := domain.ParseDate(parts[0])
	if err != nil {
		return nil, domain.NewValidationError("cursor", "has an invalid start date")
	}

	var id int64
	if _, err := fmt.Sscanf(parts[1], "%d", &id); err != nil || id <= 0 {
		return nil, domain.NewValidationError("cursor", "has an invalid job id")
	}

	return &storage.JobCursor{StartDate: startDate, ID: id}, nil
}

func EncodeJobCursor(cursor *storage.JobCursor) string {
	cs := fmt.Sprintf("%s|%d", cursor.StartDate, cursor.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(cs))
}
