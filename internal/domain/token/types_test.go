package token

import (
	"encoding/json"
	"testing"
)

func TestTeamRefUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare string", input: `"team-a"`, want: "team-a"},
		{name: "object form", input: `{"id": "team-b"}`, want: "team-b"},
		{name: "object with extra fields", input: `{"id": "team-c", "name": "Team C"}`, want: "team-c"},
		{name: "empty string", input: `""`, want: ""},
		{name: "object without id", input: `{"name": "no id"}`, want: ""},
		{name: "number", input: `42`, wantErr: true},
		{name: "array", input: `["team-a"]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ref TeamRef
			err := json.Unmarshal([]byte(tt.input), &ref)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got ref %+v", ref)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ref.ID != tt.want {
				t.Errorf("got id %q, want %q", ref.ID, tt.want)
			}
		})
	}
}

func TestTeamRefMarshalNormalizes(t *testing.T) {
	data, err := json.Marshal(TeamRef{ID: "team-a"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"id":"team-a"}` {
		t.Errorf("marshal produced %s, want normalized object form", data)
	}
}

func TestScopePermissions(t *testing.T) {
	tests := []struct {
		name       string
		scope      Scope
		permission string
		has        bool
		allowsAll  bool
	}{
		{
			name:      "empty permissions allow everything",
			scope:     Scope{},
			allowsAll: true,
		},
		{
			name:       "wildcard grants any permission",
			scope:      Scope{Permissions: []string{"*"}},
			permission: "tools.execute",
			has:        true,
			allowsAll:  true,
		},
		{
			name:       "explicit grant",
			scope:      Scope{Permissions: []string{"tools.read", "resources.read"}},
			permission: "tools.read",
			has:        true,
		},
		{
			name:       "missing grant",
			scope:      Scope{Permissions: []string{"tools.read"}},
			permission: "tools.execute",
			has:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scope.AllowsAllPermissions(); got != tt.allowsAll {
				t.Errorf("AllowsAllPermissions() = %v, want %v", got, tt.allowsAll)
			}
			if tt.permission != "" {
				if got := tt.scope.HasPermission(tt.permission); got != tt.has {
					t.Errorf("HasPermission(%q) = %v, want %v", tt.permission, got, tt.has)
				}
			}
		})
	}
}

func TestClaimsTeamHelpers(t *testing.T) {
	c := &Claims{Subject: "alice", Teams: []string{"team-a", "team-b"}}
	if c.IsPublicOnly() {
		t.Error("claims with teams reported as public-only")
	}
	if !c.HasTeam("team-b") {
		t.Error("HasTeam(team-b) = false")
	}
	if c.HasTeam("team-z") {
		t.Error("HasTeam(team-z) = true")
	}

	empty := &Claims{Subject: "bob"}
	if !empty.IsPublicOnly() {
		t.Error("claims without teams not reported as public-only")
	}
}
