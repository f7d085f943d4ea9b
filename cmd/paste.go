package cmd

import (
	"fmt"

	"github.com/manifoldco/promptui"

	"github.com/spigell/cv-matcher/internal/intake"
)

func promptJob() (string, error) {
	prompt := promptui.Prompt{Label: "Job description"}
	text, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("job description prompt: %w", err)
	}
	return text, nil
}

// pasteCandidates asks for count name/text pairs. Blank answers are kept so
// that incomplete pairs are reported by intake.
func pasteCandidates(count int) ([]intake.Pair, error) {
	if count == 0 {
		return nil, nil
	}
	if err := intake.ValidateCount(count); err != nil {
		return nil, err
	}

	pairs := make([]intake.Pair, 0, count)
	for i := 1; i <= count; i++ {
		namePrompt := promptui.Prompt{Label: fmt.Sprintf("Candidate %d name", i)}
		name, err := namePrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}

		textPrompt := promptui.Prompt{Label: fmt.Sprintf("Candidate %d resume text", i)}
		text, err := textPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}

		pairs = append(pairs, intake.Pair{Name: name, Text: text})
	}

	return pairs, nil
}
