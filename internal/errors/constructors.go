package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *SiteError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Build pipeline errors

func BuildFailed(stage string, cause error) *SiteError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build failed").
		WithContext("stage", stage)
}

func RenderFailed(page string, cause error) *SiteError {
	return Wrap(cause, CategoryRender, SeverityError, "page render failed").
		WithContext("page", page)
}

func PluginFailed(name string, cause error) *SiteError {
	return Wrap(cause, CategoryPlugin, SeverityError, "plugin failed").
		WithContext("plugin", name)
}

func SiteDirError(operation string, cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "site directory operation failed").
		WithContext("operation", operation)
}

// Serve errors

func ServeFailed(operation string, cause error) *SiteError {
	return Wrap(cause, CategoryServe, SeverityFatal, "dev server failed").
		WithContext("operation", operation)
}

// Git errors

func GitError(operation string, cause error) *SiteError {
	return Wrap(cause, CategoryGit, SeverityFatal, "git operation failed").
		WithContext("operation", operation)
}

// Network errors

func NetworkTimeout(url string, cause error) *SiteError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "network timeout").
		WithContext("url", url)
}

// Internal errors

func InternalError(message string, cause error) *SiteError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
