package ui

import "github.com/AlecAivazis/survey/v2"

// IconOption styles survey selects to match the rest of the prompts: a "»"
// question marker instead of the default "?".
func IconOption() survey.AskOpt {
	return survey.WithIcons(func(icons *survey.IconSet) {
		icons.Question.Text = "»"
		icons.SelectFocus.Text = "›"
	})
}
