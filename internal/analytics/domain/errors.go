package domain

import "errors"

var (
	ErrDuplicateKey     = errors.New("duplicate_key")
	ErrNotFound         = errors.New("analytics_record_not_found")
	ErrInvalidFormID    = errors.New("invalid_form_id")
	ErrInvalidDateRange = errors.New("invalid_date_range")
	ErrNotRecordable    = errors.New("event_not_recordable")
)
