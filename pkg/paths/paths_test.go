package paths_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/arthur-debert/sshrelease/pkg/paths"
	"github.com/stretchr/testify/assert"
)

func TestReversePath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"www", ".."},
		{"web/uploads", "../.."},
		{"a/b/c", "../../.."},
		{"path/to/something/deep", "../../../.."},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, paths.ReversePath(tt.input))
		})
	}
}

func TestReversePathSegmentCount(t *testing.T) {
	for n := 1; n <= 8; n++ {
		segments := make([]string, n)
		for i := range segments {
			segments[i] = fmt.Sprintf("dir%d", i)
		}

		got := paths.ReversePath(strings.Join(segments, "/"))
		parts := strings.Split(got, "/")

		assert.Len(t, parts, n)
		for _, p := range parts {
			assert.Equal(t, "..", p)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "absolute shared target",
			input: "/srv/app/releases/r4/web/uploads/../../../../shared/uploads",
			want:  "/srv/app/shared/uploads",
		},
		{
			name:  "dot segments dropped",
			input: "/srv/app/./releases/./r1",
			want:  "/srv/app/releases/r1",
		},
		{
			name:  "double slashes collapsed",
			input: "/srv/app//releases//r1",
			want:  "/srv/app/releases/r1",
		},
		{
			name:  "cannot climb above the retained root",
			input: "/srv/app/../../../etc",
			want:  "/srv/app/../../../etc",
		},
		{
			name:  "stops popping at the minimum",
			input: "/srv/releases/r4/web/uploads/../../../../shared/uploads",
			want:  "/srv/releases/../shared/uploads",
		},
		{
			name:  "relative path keeps leading parents",
			input: "../../../shared/uploads",
			want:  "../../../shared/uploads",
		},
		{
			name:  "first two segments preserved verbatim",
			input: "./../a/b",
			want:  "./../a/b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paths.Normalize(tt.input))
		})
	}
}

func TestNormalizeNeverDropsBelowMinimum(t *testing.T) {
	for extra := 0; extra <= 10; extra++ {
		for depth := paths.MinRetainedSegments; depth <= 6; depth++ {
			segments := make([]string, 0, depth+extra)
			for i := 0; i < depth; i++ {
				segments = append(segments, fmt.Sprintf("d%d", i))
			}
			for i := 0; i < extra; i++ {
				segments = append(segments, "..")
			}

			got := paths.Normalize(strings.Join(segments, "/"))

			assert.GreaterOrEqual(t, len(strings.Split(got, "/")), paths.MinRetainedSegments,
				"depth=%d extra=%d got=%q", depth, extra, got)
			assert.True(t, strings.HasPrefix(got, "d0/d1/d2"), "got=%q", got)
		}
	}
}

func TestRelativeTarget(t *testing.T) {
	tests := []struct {
		name   string
		link   string
		target string
		want   string
	}{
		{
			name:   "shared folder behind a nested symlink",
			link:   "releases/r4/web/uploads",
			target: "shared/uploads",
			want:   "../../../shared/uploads",
		},
		{
			name:   "shared folder behind a top level symlink",
			link:   "releases/r4/logs",
			target: "shared/logs",
			want:   "../../shared/logs",
		},
		{
			name:   "current link at the deploy root",
			link:   "www",
			target: "releases/r4",
			want:   "releases/r4",
		},
		{
			name:   "current link one level down",
			link:   "public/current",
			target: "releases/r4",
			want:   "../releases/r4",
		},
		{
			name:   "nested releases folder",
			link:   "var/releases/r4/web/uploads",
			target: "shared/uploads",
			want:   "../../../../shared/uploads",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paths.RelativeTarget(tt.link, tt.target))
		})
	}
}

func TestSharedTargetUsesReversedSymlinkSegments(t *testing.T) {
	symlink := "web/uploads"
	got := paths.RelativeTarget(paths.Join("releases", "r4", symlink), paths.Join("shared", "uploads"))

	// The two segments of web/uploads reversed, plus one level for the
	// release folder, then the shared folder appended.
	assert.Equal(t, paths.ReversePath(symlink)+"/../shared/uploads", got)
}

func TestResolve(t *testing.T) {
	link := "/srv/app/releases/r4/web/uploads"
	target := paths.RelativeTarget("releases/r4/web/uploads", "shared/uploads")

	assert.Equal(t, "/srv/app/shared/uploads", paths.Resolve(link, target))
	assert.Equal(t, "/data/uploads", paths.Resolve(link, "/data/uploads"))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "/srv/app/releases/r1", paths.Join("/srv/app", "releases", "r1"))
	assert.Equal(t, "srv/app", paths.Join("srv/", "/app/"))
}
