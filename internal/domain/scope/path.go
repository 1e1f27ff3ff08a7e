package scope

import (
	"regexp"
	"strings"
)

// DefaultExemptPrefixes are the path prefixes that bypass scoping
// entirely: health, metrics, API docs, login/register, and well-known
// endpoints. The root path "/" is exempt by exact match only. One list
// serves both the middleware skip check and the server-restriction
// general-endpoint fallback.
var DefaultExemptPrefixes = []string{
	"/health",
	"/metrics",
	"/openapi.json",
	"/docs",
	"/redoc",
	"/auth/email/login",
	"/auth/email/register",
	"/.well-known/",
}

// ExemptList answers whether a path is exempt from scoping.
type ExemptList struct {
	prefixes []string
}

// NewExemptList builds an ExemptList. A nil or empty prefix slice
// falls back to DefaultExemptPrefixes.
func NewExemptList(prefixes []string) *ExemptList {
	if len(prefixes) == 0 {
		prefixes = DefaultExemptPrefixes
	}
	return &ExemptList{prefixes: prefixes}
}

// Contains reports whether path is exempt. The root path matches
// exactly; everything else is a prefix match.
func (l *ExemptList) Contains(path string) bool {
	if path == "/" {
		return true
	}
	for _, prefix := range l.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// ResourceType identifies the kind of resource a path refers to.
type ResourceType string

// Resource types addressable by path.
const (
	ResourceServer   ResourceType = "server"
	ResourceTool     ResourceType = "tool"
	ResourceResource ResourceType = "resource"
	ResourcePrompt   ResourceType = "prompt"
)

// resourcePatterns extract a resource type and id from a request path.
// Ordered, first match wins. Patterns are anchored and segment-aware
// so "/toolsX" never matches the tool rule and collection paths like
// "/tools" extract nothing.
var resourcePatterns = []struct {
	re  *regexp.Regexp
	typ ResourceType
}{
	{regexp.MustCompile(`^/servers/([^/]+)`), ResourceServer},
	{regexp.MustCompile(`^/tools/([^/]+)`), ResourceTool},
	{regexp.MustCompile(`^/resources/([^/]+)`), ResourceResource},
	{regexp.MustCompile(`^/prompts/([^/]+)`), ResourcePrompt},
}

// ExtractResource pulls a resource type and id from a request path.
// Returns ok=false for paths with no item id (collection and general
// endpoints).
func ExtractResource(path string) (ResourceType, string, bool) {
	for _, p := range resourcePatterns {
		if m := p.re.FindStringSubmatch(path); m != nil {
			return p.typ, m[1], true
		}
	}
	return "", "", false
}

// serverPathPatterns extract a server id from the paths a server-pinned
// credential may touch: /servers/{id}/..., /sse/{id}, /ws/{id}.
var serverPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^/servers/([^/]+)(?:$|/)`),
	regexp.MustCompile(`^/sse/([^/?]+)(?:$|\?)`),
	regexp.MustCompile(`^/ws/([^/?]+)(?:$|\?)`),
}

// ExtractServerID pulls a server id from a request path, if the path
// addresses a specific server.
func ExtractServerID(path string) (string, bool) {
	for _, re := range serverPathPatterns {
		if m := re.FindStringSubmatch(path); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// Canonical permission strings.
const (
	PermToolsRead      = "tools.read"
	PermToolsCreate    = "tools.create"
	PermToolsUpdate    = "tools.update"
	PermToolsDelete    = "tools.delete"
	PermToolsExecute   = "tools.execute"
	PermResourcesRead  = "resources.read"
	PermResourcesWrite = "resources.create"
	PermResourcesEdit  = "resources.update"
	PermResourcesDrop  = "resources.delete"
	PermPromptsRead    = "prompts.read"
	PermPromptsCreate  = "prompts.create"
	PermPromptsUpdate  = "prompts.update"
	PermPromptsDelete  = "prompts.delete"
	PermServersRead    = "servers.read"
	PermServersCreate  = "servers.create"
	PermServersUpdate  = "servers.update"
	PermServersDelete  = "servers.delete"
	PermAdminUsers     = "admin.user_management"
)

// permissionRule maps (method, path shape) to a required permission.
type permissionRule struct {
	method     string
	pattern    *regexp.Regexp
	permission string
}

// permissionRules is the ordered table of regulated routes; first
// matching rule wins. It is an allow-list of restricted routes, not of
// all routes: an unmatched (method, path) pair is allowed
// unconditionally. Patterns are anchored and segment-aware so item
// rules never match by partial prefix.
var permissionRules = []permissionRule{
	// Tools
	{"GET", regexp.MustCompile(`^/tools(?:$|/)`), PermToolsRead},
	{"POST", regexp.MustCompile(`^/tools(?:$|/)`), PermToolsCreate},
	{"PUT", regexp.MustCompile(`^/tools/[^/]+(?:$|/)`), PermToolsUpdate},
	{"DELETE", regexp.MustCompile(`^/tools/[^/]+(?:$|/)`), PermToolsDelete},
	{"GET", regexp.MustCompile(`^/servers/[^/]+/tools(?:$|/)`), PermToolsRead},
	{"POST", regexp.MustCompile(`^/servers/[^/]+/tools/[^/]+/call(?:$|/)`), PermToolsExecute},
	// Resources
	{"GET", regexp.MustCompile(`^/resources(?:$|/)`), PermResourcesRead},
	{"POST", regexp.MustCompile(`^/resources(?:$|/)`), PermResourcesWrite},
	{"PUT", regexp.MustCompile(`^/resources/[^/]+(?:$|/)`), PermResourcesEdit},
	{"DELETE", regexp.MustCompile(`^/resources/[^/]+(?:$|/)`), PermResourcesDrop},
	{"GET", regexp.MustCompile(`^/servers/[^/]+/resources(?:$|/)`), PermResourcesRead},
	// Prompts
	{"GET", regexp.MustCompile(`^/prompts(?:$|/)`), PermPromptsRead},
	{"POST", regexp.MustCompile(`^/prompts(?:$|/)`), PermPromptsCreate},
	{"PUT", regexp.MustCompile(`^/prompts/[^/]+(?:$|/)`), PermPromptsUpdate},
	{"DELETE", regexp.MustCompile(`^/prompts/[^/]+(?:$|/)`), PermPromptsDelete},
	// Servers
	{"GET", regexp.MustCompile(`^/servers(?:$|/)`), PermServersRead},
	{"POST", regexp.MustCompile(`^/servers(?:$|/)`), PermServersCreate},
	{"PUT", regexp.MustCompile(`^/servers/[^/]+(?:$|/)`), PermServersUpdate},
	{"DELETE", regexp.MustCompile(`^/servers/[^/]+(?:$|/)`), PermServersDelete},
	// Admin
	{"GET", regexp.MustCompile(`^/admin(?:$|/)`), PermAdminUsers},
	{"POST", regexp.MustCompile(`^/admin/[^/]+(?:$|/)`), PermAdminUsers},
	{"PUT", regexp.MustCompile(`^/admin/[^/]+(?:$|/)`), PermAdminUsers},
	{"DELETE", regexp.MustCompile(`^/admin/[^/]+(?:$|/)`), PermAdminUsers},
}

// RequiredPermission returns the permission required for a
// (method, path) pair, or ok=false when the route is not regulated.
func RequiredPermission(method, path string) (string, bool) {
	for _, rule := range permissionRules {
		if rule.method == method && rule.pattern.MatchString(path) {
			return rule.permission, true
		}
	}
	return "", false
}
