package scope

import "testing"

func TestExemptList(t *testing.T) {
	l := NewExemptList(nil)

	tests := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/health", true},
		{"/health/live", true},
		{"/metrics", true},
		{"/openapi.json", true},
		{"/docs", true},
		{"/redoc", true},
		{"/auth/email/login", true},
		{"/auth/email/register", true},
		{"/.well-known/oauth-authorization-server", true},
		{"/tools", false},
		{"/servers/abc", false},
		{"/authx", false},
	}

	for _, tt := range tests {
		if got := l.Contains(tt.path); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestExemptListCustomPrefixes(t *testing.T) {
	l := NewExemptList([]string{"/public"})
	if !l.Contains("/public/info") {
		t.Error("custom prefix not honored")
	}
	if l.Contains("/health") {
		t.Error("default prefix still active after override")
	}
	if !l.Contains("/") {
		t.Error("root path must stay exempt")
	}
}

func TestExtractResource(t *testing.T) {
	tests := []struct {
		path   string
		typ    ResourceType
		id     string
		wantOK bool
	}{
		{"/servers/srv-1", ResourceServer, "srv-1", true},
		{"/servers/srv-1/tools", ResourceServer, "srv-1", true},
		{"/tools/tool-9", ResourceTool, "tool-9", true},
		{"/resources/res-2", ResourceResource, "res-2", true},
		{"/prompts/p-3", ResourcePrompt, "p-3", true},
		{"/tools", "", "", false},
		{"/toolsX/abc", "", "", false},
		{"/elicitations/abc", "", "", false},
		{"/", "", "", false},
	}

	for _, tt := range tests {
		typ, id, ok := ExtractResource(tt.path)
		if ok != tt.wantOK || typ != tt.typ || id != tt.id {
			t.Errorf("ExtractResource(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.path, typ, id, ok, tt.typ, tt.id, tt.wantOK)
		}
	}
}

func TestExtractServerID(t *testing.T) {
	tests := []struct {
		path   string
		id     string
		wantOK bool
	}{
		{"/servers/srv-1", "srv-1", true},
		{"/servers/srv-1/tools/t/call", "srv-1", true},
		{"/sse/srv-2", "srv-2", true},
		{"/sse/srv-2?session=x", "srv-2", true},
		{"/ws/srv-3", "srv-3", true},
		{"/servers", "", false},
		{"/tools/t-1", "", false},
		{"/serversX/srv-1", "", false},
	}

	for _, tt := range tests {
		id, ok := ExtractServerID(tt.path)
		if ok != tt.wantOK || id != tt.id {
			t.Errorf("ExtractServerID(%q) = (%q, %v), want (%q, %v)", tt.path, id, ok, tt.id, tt.wantOK)
		}
	}
}

func TestRequiredPermission(t *testing.T) {
	tests := []struct {
		method string
		path   string
		perm   string
		wantOK bool
	}{
		{"GET", "/tools", PermToolsRead, true},
		{"GET", "/tools/t-1", PermToolsRead, true},
		{"POST", "/tools", PermToolsCreate, true},
		{"PUT", "/tools/t-1", PermToolsUpdate, true},
		{"DELETE", "/tools/t-1", PermToolsDelete, true},
		// Server-scoped tool routes resolve before the generic server rules.
		{"GET", "/servers/s-1/tools", PermToolsRead, true},
		{"POST", "/servers/s-1/tools/t-1/call", PermToolsExecute, true},
		{"GET", "/resources", PermResourcesRead, true},
		{"POST", "/resources", PermResourcesWrite, true},
		{"GET", "/prompts", PermPromptsRead, true},
		{"DELETE", "/prompts/p-1", PermPromptsDelete, true},
		{"GET", "/servers", PermServersRead, true},
		{"GET", "/servers/s-1", PermServersRead, true},
		{"POST", "/servers", PermServersCreate, true},
		{"PUT", "/servers/s-1", PermServersUpdate, true},
		{"DELETE", "/servers/s-1", PermServersDelete, true},
		{"GET", "/admin", PermAdminUsers, true},
		{"POST", "/admin/users", PermAdminUsers, true},
		// Unregulated routes.
		{"PATCH", "/tools/t-1", "", false},
		{"GET", "/toolsX", "", false},
		{"GET", "/elicitations/pending", "", false},
		{"POST", "/admin", "", false},
	}

	for _, tt := range tests {
		perm, ok := RequiredPermission(tt.method, tt.path)
		if ok != tt.wantOK || perm != tt.perm {
			t.Errorf("RequiredPermission(%q, %q) = (%q, %v), want (%q, %v)",
				tt.method, tt.path, perm, ok, tt.perm, tt.wantOK)
		}
	}
}
