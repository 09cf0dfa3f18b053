package logger

// Component-specific logger functions

// HTTP returns a logger for request handling
func HTTP() *Logger {
	return New("http")
}

// SQL returns a logger for executed queries
func SQL() *Logger {
	return New("sql")
}

// DB returns a logger for connection management
func DB() *Logger {
	return New("db")
}

// Auth returns a logger for authentication and token operations
func Auth() *Logger {
	return New("auth")
}

// Admin returns a logger for the staff console
func Admin() *Logger {
	return New("admin")
}

// Schema returns a logger for schema generation operations
func Schema() *Logger {
	return New("schema")
}

// Migration returns a logger for migration operations
func Migration() *Logger {
	return New("migration")
}

// Atlas returns a logger for Atlas operations
func Atlas() *Logger {
	return New("atlas")
}

// CLI returns a logger for CLI operations
func CLI() *Logger {
	return New("cli")
}
