package readme

import (
	"fmt"
	"strings"

	"readmegen/internal/llmclient"
)

const (
	rankSystem      = "You are a helpful assistant that ranks the files of a code repository by how useful they are for writing its README."
	synthesisSystem = "You are a helpful assistant that summarizes code repositories."

	RankMaxTokens        = 500
	RankTemperature      = 0.2
	SynthesisMaxTokens   = 1024
	SynthesisTemperature = 0.7
)

// rankingPrompt asks for one line per file in the exact shape ParseRanking accepts.
func rankingPrompt(listing string) string {
	return "Below is the list of files in a code repository, grouped by directory, with their sizes.\n\n" +
		listing + "\n\n" +
		"Rank these files from most relevant to least relevant for writing the repository's README.\n" +
		"Respond with one line per file and nothing else, using exactly this format:\n" +
		"<rank>. <file_name> (<directory>): <size> KB\n" +
		"Use the directory exactly as listed (\".\" for the repository root). " +
		"Do not add headings, explanations or any other text."
}

// RankingRequest is the ranking call sent to the provider.
func RankingRequest(listing string) llmclient.Request {
	return llmclient.UserRequest(rankSystem, rankingPrompt(listing), RankMaxTokens, RankTemperature)
}

// synthesisPrompt embeds the combined file blocks. tree may be empty.
func synthesisPrompt(combined, tree string) string {
	var sb strings.Builder
	sb.WriteString("Based on the following repository contents, generate a README in Markdown with these sections:\n")
	sb.WriteString("1. A title.\n")
	sb.WriteString("2. 4-5 badges for the main technologies, each written as ![Name](https://img.shields.io/badge/Name-color?style=for-the-badge&logo=name&logoColor=white).\n")
	sb.WriteString("3. About: the purpose of the repository.\n")
	sb.WriteString("4. Repository Structure: the important directories and files.\n")
	sb.WriteString("5. Modules (optional): implementation details of the main modules, only when the code warrants it.\n")
	sb.WriteString("6. Features.\n")
	sb.WriteString("Return only the README content, with no commentary before or after it.\n")
	if tree != "" {
		fmt.Fprintf(&sb, "\nRepository layout:\n%s\n", tree)
	}
	sb.WriteString("\nRepository contents:\n\n")
	sb.WriteString(combined)
	return sb.String()
}

// SynthesisRequest is the generation call. The budget fitter counts tokens
// against this same request, so what is measured is what is sent.
func SynthesisRequest(combined, tree string) llmclient.Request {
	return llmclient.UserRequest(synthesisSystem, synthesisPrompt(combined, tree), SynthesisMaxTokens, SynthesisTemperature)
}
