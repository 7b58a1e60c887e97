package services

import (
	"fmt"
	"strings"
)

// ProjectURL builds the frontend link of a project, e.g. https://coproject.dk/projects/7.
// It returns "" when no base URL is configured.
func ProjectURL(baseURL string, projectID int) string {
	if baseURL == "" || projectID <= 0 {
		return ""
	}
	return fmt.Sprintf("%s/projects/%d", strings.TrimSuffix(baseURL, "/"), projectID)
}

func linkParagraph(url string) string {
	if url == "" {
		return ""
	}
	return fmt.Sprintf(`<p><a href="%s">Open the project</a></p>`, url)
}
