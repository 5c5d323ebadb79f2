package service

// GradingPrompt dikirim apa adanya di depan rubric + lembar jawaban.
const GradingPrompt = `Grade this answer sheet according to the rubric provided. Format your response in HTML as follows:

<h3>SECTION [NAME] ([TOTAL] marks)</h3>
<p><strong>Q[number] ([max_marks])</strong>: [Brief feedback] - [awarded]/[max_marks]</p>

There could be multiple choice questions. For these, the student might write the option in their response, e.g. 'B'. 
In the rubric, for these questions, the correct option might be present, e.g. 'C'. If they mismatch, then deduct points for that question.
Directly start your response with the grading without any preamble.`

const (
	rubricLabel = "Rubric:"
	answerLabel = "Student answer sheet:"
)
