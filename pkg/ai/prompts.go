package ai

const NarratePrompt = `You are watching one clip from a longer video. Describe what happens in the clip as a neutral observer: who is visible, what they do, what they say, and anything notable about the setting. Refer to people by their appearance only (e.g. "the man in the grey coat"). Do not speculate about events outside this clip.`

const CaptionPrompt = `
# Task Context
You are a helpful assistant that turns a raw narration of a video clip into a list of short, self-contained memory statements.

# Background Data
The people detected in this clip have been assigned placeholder tokens:
%s

Raw narration of the clip:
%s

# Detailed Task Description & Rules
- Write one statement per distinct fact or event in the clip.
- Refer to detected people ONLY by their placeholder token (e.g. "<p1> opens the door").
- If the narration mentions a person's actual name, keep the name in the statement next to the token (e.g. "<p1>, who is called Anna, ...").
- Never invent placeholder tokens that are not in the provided list.
- People mentioned in the narration but not in the placeholder list stay as plain descriptions.
- Statements must make sense on their own, without the other statements.

# Output Formatting
Return a JSON object:
{
  "statements": ["<statement 1>", "<statement 2>", ...]
}
`

const ExpandPrompt = `
# Task Context
You are an assistant that reformulates a question about a video into multiple alternative search queries for retrieving relevant memories.

# Background Data
Question: %s

# Detailed Task Description & Rules
- Produce exactly %d queries.
- The first query should stay close to the original question.
- The remaining queries should rephrase the question, decompose it into sub-questions, or target the same information using different wording.
- Queries must be self-contained; do not refer to "the question" or to each other.

# Output Formatting
Return a JSON object:
{
  "queries": ["<query 1>", "<query 2>", ...]
}
`

const AnswerPrompt = `
# Task Context
You are answering a question about a video using memories retrieved from it. The memories are listed in the order the events happened.

# Background Data
%s

# Detailed Task Description & Rules
- Answer using ONLY the memories above.
- If the memories do not contain the answer, say that the video does not show it.
- Refer to people by their name if one is given, otherwise by their listed identity label.
- Keep the answer concise and grounded in the listed memories.
`

const NoDataPrompt = `The user asked: "%s"

No relevant memories were found for this question. Reply briefly, in the language of the question, that the video does not contain information to answer it. Do not attempt to answer the question itself.`
