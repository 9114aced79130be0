package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Discovery Errors (E100-E109)
	// ============================================

	"E100": {
		Category:   CategoryDiscovery,
		Message:    "Route directory not found",
		Detail:     "The route root, or a directory found while walking it, does not exist.",
		Suggestion: "Create the directory or set routes.dir in autoroute.toml",
	},
	"E101": {
		Category:   CategoryDiscovery,
		Message:    "Route directory not readable",
		Detail:     "A directory of the route tree could not be listed because access was denied.",
		Suggestion: "Check the permissions of the route tree",
	},

	// ============================================
	// Route File Errors (E110-E119)
	// ============================================

	"E110": {
		Category:   CategoryRouteFile,
		Message:    "Unsupported route file format",
		Detail:     "Route files are decoded by extension. Other files in the tree cannot be registered.",
		Suggestion: "Use .toml, .yaml, .yml or .json, or move the file out of the route tree",
	},
	"E111": {
		Category: CategoryRouteFile,
		Message:  "Invalid route definition",
		Detail:   "Each route needs exactly one of a handler, a redirect or a static response, and a known HTTP method.",
	},
	"E112": {
		Category: CategoryRouteFile,
		Message:  "Route file syntax error",
		Detail:   "The route file is not a valid document for its format.",
	},

	// ============================================
	// Registrar Errors (E120-E129)
	// ============================================

	"E120": {
		Category:   CategoryRegistrar,
		Message:    "Unknown handler",
		Detail:     "A route names a handler that was never registered.",
		Suggestion: "Register it with autoroute.WithHandler before Boot",
	},
	"E121": {
		Category:   CategoryRegistrar,
		Message:    "Unknown middleware group",
		Detail:     "A directory or route refers to a middleware group that was never defined.",
		Suggestion: "Define it with autoroute.WithMiddlewareGroup or fix [routes.middleware]",
	},
	"E122": {
		Category:   CategoryRegistrar,
		Message:    "Duplicate route name",
		Detail:     "Route names must be unique across the whole tree.",
		Suggestion: "Rename one of the routes; names are prefixed with the file's dotted path",
	},
	"E123": {
		Category: CategoryRegistrar,
		Message:  "Invalid route pattern",
		Detail:   "The router rejected a route pattern. Wildcards must be the last segment and parameters must be closed.",
	},
	"E124": {
		Category: CategoryRegistrar,
		Message:  "Unknown route",
		Detail:   "No route is registered under that name.",
	},
	"E125": {
		Category: CategoryRegistrar,
		Message:  "Missing route parameter",
		Detail:   "Building a URL needs a value for every parameter of the route pattern.",
	},
	"E126": {
		Category: CategoryRegistrar,
		Message:  "Application already booted",
		Detail:   "Route discovery runs once per application.",
	},

	// ============================================
	// Source Errors (E140-E149)
	// ============================================

	"E140": {
		Category:   CategorySource,
		Message:    "S3 request failed",
		Detail:     "Listing or reading the route tree from S3 failed.",
		Suggestion: "Check source.bucket, source.region and the AWS credentials in the environment",
	},

	// ============================================
	// Config Errors (E150-E159)
	// ============================================

	"E150": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "autoroute.toml contains an invalid value.",
	},
	"E151": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Detail:     "The configuration file passed with --config does not exist.",
		Suggestion: "Omit --config to run with defaults, or create the file",
	},
	"E152": {
		Category: CategoryConfig,
		Message:  "Configuration syntax error",
		Detail:   "The configuration file is not valid TOML.",
	},

	// ============================================
	// CLI Errors (E160-E169)
	// ============================================

	"E160": {
		Category: CategoryCLI,
		Message:  "Command failed",
	},
	"E161": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
