package llm

import "fmt"

const coverLetterSystemPrompt = "You are an expert cover letter generator that tailors letters based on the candidate's resume, " +
	"the job description, and incorporates research about the industry. " +
	"Ensure the output is professional and aligned with the chosen tone."

// The interpolation order is fixed: industry, tone, resume, job description.
const coverLetterUserFormat = "Generate a cover letter for a job in the %s industry. " +
	"Use the resume information below and the job description to highlight the candidate's strengths and fit for the role. " +
	"Make sure to incorporate any relevant industry research and align the tone with a %s style.\n\n" +
	"Resume:\n%s\n\n" +
	"Job Description:\n%s\n"

const extractionPrompt = "Extract all text from this resume image."

// BuildCoverLetterMessages creates the chat messages for a generation call.
func BuildCoverLetterMessages(resumeText, jobDescription, industry, tone string) []Message {
	return []Message{
		{Role: RoleSystem, Text: coverLetterSystemPrompt},
		{Role: RoleUser, Text: fmt.Sprintf(coverLetterUserFormat, industry, tone, resumeText, jobDescription)},
	}
}

// BuildExtractionMessages creates the single vision message asking the
// model to read the resume image.
func BuildExtractionMessages(img Image) []Message {
	return []Message{
		{Role: RoleUser, Text: extractionPrompt, Image: &img},
	}
}
