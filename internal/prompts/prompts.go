// Package prompts holds the fixed instruction templates for every derived
// signal. Each Build function is deterministic string concatenation; the
// expected output shape (bare number vs JSON object) is part of the template
// contract and is what internal/parse defends.
package prompts

import "fmt"

const interruptionTemplate = `You are analyzing a sales call transcript. Count the number of times one speaker begins talking before the other speaker has finished (overtalk). Respond with ONLY a single integer and nothing else.

Transcript:
%s`

const paceTemplate = `You are analyzing a sales call transcript. Rate the overall speech pace of the conversation on a scale from 1 (very slow) to 5 (very fast). Respond with ONLY a single integer between 1 and 5 and nothing else.

Transcript:
%s`

const talkListenTemplate = `You are analyzing a sales call transcript. Estimate the ratio of time the salesperson spent talking versus listening, as a single decimal number (for example 1.5 means they talked 50%% more than they listened). Respond with ONLY the number and nothing else.

Transcript:
%s`

const turnCountTemplate = `You are analyzing a sales call transcript. Count the number of speaker turns (each time the active speaker changes counts as one turn). Respond with ONLY a single integer and nothing else.

Transcript:
%s`

const topicsTemplate = `You are analyzing a sales call transcript. Identify up to 5 short topics discussed on the call. Respond with ONLY a JSON object of the form {"topics": ["topic one", "topic two"]} and nothing else.

Transcript:
%s`

const actionsTemplate = `You are analyzing a sales call transcript. Choose the follow-up actions the salesperson should take, strictly from this list: "Qualify the lead", "Research the company", "Initiate a call/email", "Follow up consistently", "Send a proposal". Respond with ONLY a JSON object of the form {"actions": ["..."]} and nothing else.

Transcript:
%s`

const relevanceTemplate = `You are scoring how relevant a company is as a sales lead based on web search snippets about it. Respond with ONLY a JSON object of the form {"relevanceScore": 0.0} where the score is a decimal between 0 and 1.

Search snippets:
%s`

func Interruptions(transcript string) string { return fmt.Sprintf(interruptionTemplate, transcript) }
func Pace(transcript string) string          { return fmt.Sprintf(paceTemplate, transcript) }
func TalkListen(transcript string) string    { return fmt.Sprintf(talkListenTemplate, transcript) }
func TurnCount(transcript string) string     { return fmt.Sprintf(turnCountTemplate, transcript) }
func Topics(transcript string) string        { return fmt.Sprintf(topicsTemplate, transcript) }
func Actions(transcript string) string       { return fmt.Sprintf(actionsTemplate, transcript) }
func Relevance(snippets string) string       { return fmt.Sprintf(relevanceTemplate, snippets) }
