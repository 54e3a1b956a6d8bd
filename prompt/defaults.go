package prompt

// Names of the built-in templates.
const (
	AnswerTemplate   = "answer"
	ReviseTemplate   = "revise"
	CritiqueTemplate = "critique"
)

// Exchange is one prior question/answer pair shown to the model.
type Exchange struct {
	Question string
	Answer   string
}

// AnswerData feeds the answer and revise templates.
type AnswerData struct {
	Question     string
	SubQuestions []string
	Instruction  string
	Contexts     []string
	History      []Exchange

	// Revise only.
	PreviousAnswer string
	Feedback       []string
}

// CritiqueData feeds the critique template.
type CritiqueData struct {
	Question string
	Answer   string
	Contexts []string
}

const contextBlock = `Context:
{{- if .Contexts}}
{{- range $i, $c := .Contexts}}
[{{inc $i}}] {{$c}}
{{- end}}
{{- else}}
(no context was retrieved)
{{- end}}`

const historyBlock = `{{if .History}}Earlier in this conversation:
{{- range .History}}
Q: {{.Question}}
A: {{.Answer}}
{{- end}}

{{end}}`

const questionBlock = `Question: {{.Question}}
{{- if .SubQuestions}}

Address each part:
{{- range .SubQuestions}}
- {{.}}
{{- end}}
{{.Instruction}}
{{- end}}`

var defaults = map[string]string{
	AnswerTemplate: `You answer questions using only the provided context.
` + historyBlock + contextBlock + `

` + questionBlock + `

If the context does not contain the answer, say that plainly.
Answer:`,

	ReviseTemplate: `You answer questions using only the provided context.
` + historyBlock + contextBlock + `

` + questionBlock + `

Your previous answer was:
{{.PreviousAnswer}}

A reviewer found these problems:
{{- range .Feedback}}
- {{.}}
{{- end}}

Write an improved answer that fixes them. Use only the context.
Answer:`,

	CritiqueTemplate: `You review answers for faithfulness to their context.

` + contextBlock + `

Question: {{.Question}}
Answer: {{.Answer}}

List at most three concrete problems, such as claims the context does not support or parts of the question left unanswered. Reply "No issues." if there are none.`,
}
