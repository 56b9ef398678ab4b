package main

// Generate a cover letter from local files, without the HTTP server:
//   go run ./cmd/lettergen -resume resume.pdf -jd jd.txt

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/llm/groq"
	"coverletter-backend/internal/normalize"
	"coverletter-backend/internal/shared/config"
	"coverletter-backend/letter"
)

func main() {
	cfg := config.Load()

	resumePath := flag.String("resume", "", "Path to resume file (.txt, .pdf, .png, .jpg)")
	jdPath := flag.String("jd", "", "Path to job description file")
	industry := flag.String("industry", "", "Industry (defaults to Technology)")
	tone := flag.String("tone", "", "Tone: Professional, Friendly, Formal or Casual")
	template := flag.String("template", "", "Presentation template: Classic, Modern or Creative")
	model := flag.String("model", cfg.TextModel, "Text model")
	outPath := flag.String("out", "", "Path to write the letter (optional)")
	flag.Parse()

	if strings.TrimSpace(*resumePath) == "" {
		exitErr("resume path is required")
	}
	if strings.TrimSpace(*jdPath) == "" {
		exitErr("jd path is required")
	}

	client, err := groq.NewClient(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.LLMTimeout)
	if err != nil {
		exitErr(err.Error())
	}

	ctx := context.Background()

	resumeText, err := resumeTextFromFile(ctx, client, cfg, *resumePath)
	if err != nil {
		exitErr(fmt.Sprintf("read resume: %v", err))
	}

	jdBytes, err := os.ReadFile(*jdPath)
	if err != nil {
		exitErr(fmt.Sprintf("read job description: %v", err))
	}

	completion, err := client.Complete(ctx, llm.Request{
		Model: *model,
		Messages: llm.BuildCoverLetterMessages(
			resumeText,
			string(jdBytes),
			letter.NormalizeIndustry(*industry),
			letter.NormalizeTone(*tone),
		),
	})
	if err != nil {
		exitErr(fmt.Sprintf("generate letter: %v", err))
	}

	text := completion.Text
	if strings.TrimSpace(*template) != "" {
		text = letter.Render(text, strings.TrimSpace(*template))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(text), 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}

	if _, err := os.Stdout.WriteString(text); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	if len(text) == 0 || text[len(text)-1] != '\n' {
		_, _ = os.Stdout.WriteString("\n")
	}
}

// resumeTextFromFile reads a resume from disk. Plain text passes through;
// supported image and PDF uploads go through the same extraction pipeline
// the server uses.
func resumeTextFromFile(ctx context.Context, client llm.Client, cfg config.Config, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	fileName := filepath.Base(path)

	if strings.ToLower(filepath.Ext(fileName)) == ".txt" {
		return string(data), nil
	}
	if !normalize.Supported(fileName) {
		return "", fmt.Errorf("unsupported resume file type: %s", filepath.Ext(fileName))
	}

	if normalize.IsPDF(fileName) && cfg.ExtractTextLayer {
		if text, err := normalize.TextLayer(data); err == nil && text != "" {
			return text, nil
		}
	}

	img, err := normalize.New(normalize.FitzRenderer{}).Normalize(data, fileName)
	if err != nil {
		return "", err
	}
	completion, err := client.Complete(ctx, llm.Request{
		Model:    cfg.VisionModel,
		Messages: llm.BuildExtractionMessages(llm.Image{MIME: img.MIME, Base64: img.Base64}),
	})
	if err != nil {
		return "", err
	}
	return completion.Text, nil
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
