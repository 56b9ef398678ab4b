package llm

import (
	"strings"
	"testing"
)

func TestBuildCoverLetterMessagesShape(t *testing.T) {
	msgs := BuildCoverLetterMessages("resume body", "jd body", "Technology", "Professional")
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleSystem || msgs[1].Role != RoleUser {
		t.Fatalf("expected system then user, got %q then %q", msgs[0].Role, msgs[1].Role)
	}
	if msgs[0].Image != nil || msgs[1].Image != nil {
		t.Fatalf("generation messages must not carry images")
	}
	if !strings.Contains(msgs[0].Text, "expert cover letter generator") {
		t.Fatalf("unexpected system prompt: %q", msgs[0].Text)
	}
}

func TestBuildCoverLetterMessagesInterpolationOrder(t *testing.T) {
	user := BuildCoverLetterMessages("RESUME-MARK", "JD-MARK", "IND-MARK", "TONE-MARK")[1].Text

	industry := strings.Index(user, "IND-MARK")
	tone := strings.Index(user, "TONE-MARK")
	resume := strings.Index(user, "RESUME-MARK")
	jd := strings.Index(user, "JD-MARK")
	for name, idx := range map[string]int{"industry": industry, "tone": tone, "resume": resume, "job description": jd} {
		if idx < 0 {
			t.Fatalf("%s missing from user prompt: %q", name, user)
		}
	}
	if !(industry < tone && tone < resume && resume < jd) {
		t.Fatalf("interpolation order wrong: industry=%d tone=%d resume=%d jd=%d", industry, tone, resume, jd)
	}

	if !strings.Contains(user, "Resume:\nRESUME-MARK") {
		t.Fatalf("resume block malformed: %q", user)
	}
	if !strings.Contains(user, "Job Description:\nJD-MARK") {
		t.Fatalf("job description block malformed: %q", user)
	}
	if !strings.HasSuffix(user, "\n") {
		t.Fatalf("user prompt must end with a newline")
	}
}

func TestBuildExtractionMessages(t *testing.T) {
	img := Image{MIME: "image/jpeg", Base64: "aGVsbG8="}
	msgs := BuildExtractionMessages(img)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser {
		t.Fatalf("expected user role, got %q", msgs[0].Role)
	}
	if msgs[0].Text != "Extract all text from this resume image." {
		t.Fatalf("unexpected extraction instruction: %q", msgs[0].Text)
	}
	if msgs[0].Image == nil || msgs[0].Image.Base64 != img.Base64 {
		t.Fatalf("expected the image to be attached")
	}
}
