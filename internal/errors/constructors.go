package errors

// Convenience functions for common error patterns

// Config and task errors

func ConfigNotFound(path string) *BeetmoverError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *BeetmoverError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func TaskInvalid(reason string) *BeetmoverError {
	return New(CategoryTask, SeverityFatal, "task definition invalid").
		WithContext("reason", reason)
}

// Manifest errors

func ManifestIncomplete(locale, deliverable, field string) *BeetmoverError {
	return New(CategoryManifest, SeverityFatal, "manifest entry incomplete").
		WithContext("locale", locale).
		WithContext("deliverable", deliverable).
		WithContext("field", field)
}

func ManifestMissing(field string) *BeetmoverError {
	return New(CategoryManifest, SeverityFatal, "required manifest location missing").
		WithContext("field", field)
}

// Transfer errors

func DownloadTransient(url string, cause error) *BeetmoverError {
	return WrapRetryable(cause, CategoryDownload, SeverityWarning, "download failed").
		WithContext("url", url)
}

func DownloadPermanent(url string, cause error) *BeetmoverError {
	return Wrap(cause, CategoryDownload, SeverityError, "download failed permanently").
		WithContext("url", url)
}

func UploadTransient(key string, cause error) *BeetmoverError {
	return WrapRetryable(cause, CategoryUpload, SeverityWarning, "upload failed").
		WithContext("key", key)
}

func UploadPermanent(key string, cause error) *BeetmoverError {
	return Wrap(cause, CategoryUpload, SeverityError, "upload failed permanently").
		WithContext("key", key)
}

// Filesystem errors

func WorkspaceError(operation string, cause error) *BeetmoverError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}
