package agent

import "testing"

func TestParseDeploymentInfoSuccess(t *testing.T) {
	body := []byte(`{"id":"dep-1","artifact":{"artifact_name":"release-3","source":{"uri":"https://example.com/a.bin"}}}`)
	info, err := ParseDeploymentInfo(body)
	if err != nil {
		t.Fatal(err)
	}
	if info.ID != "dep-1" || info.ArtifactName != "release-3" || info.ArtifactURI != "https://example.com/a.bin" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestParseDeploymentInfoMissingFieldFails(t *testing.T) {
	cases := []string{
		`{"artifact":{"artifact_name":"release-3","source":{"uri":"https://example.com/a.bin"}}}`,
		`{"id":"dep-1","artifact":{"source":{"uri":"https://example.com/a.bin"}}}`,
		`{"id":"dep-1","artifact":{"artifact_name":"release-3","source":{}}}`,
	}
	for _, body := range cases {
		if _, err := ParseDeploymentInfo([]byte(body)); err == nil {
			t.Fatalf("expected parse failure for %s", body)
		}
	}
}
