// Package logging configures the service's log/slog logger.
//
// Entries are JSON by default (text with format: text) and always carry
// service and version attributes. With output: file, entries go to a
// lumberjack rotating file, which suits kiosks without a system journal:
//
//	logging:
//	  level: info        # debug, info, warn, error
//	  format: json       # json, text
//	  output: file       # stdout, stderr, file
//	  file:
//	    path: ./logs/rfpanel.log
//	    max_size: 10     # MB per file
//	    max_backups: 5
//	    max_age: 30      # days
package logging
