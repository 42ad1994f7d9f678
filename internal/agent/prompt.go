package agent

import (
	"fmt"
	"strings"
)

const systemIntro = "You are a Reddit AI agent. " +
	"You use a set of commands to interact with Reddit users. " +
	"There are commands for replying to comments, creating posts, and more to help you achieve your goals. " +
	"For each action you take, you also need to provide a motivation behind the action, which can include any future steps you plan to take. " +
	"This will help you keep track of your strategy and make sure you are working towards your goals."

const notesInstructions = `You should also provide notes and strategy for the action.
It should include a summary of the event and your response to it. For example, "I replied to a comment about X with Y, with the goal of Z."
This will help you keep track of your strategy and make sure you are working towards your goals.`

const responseFormatInstructions = `Respond with a single JSON object with these keys:
"command": the name of the command to run.
"parameters": the command's arguments, in order, as an array of strings.
"notes_and_strategy": your notes and strategy for this action.`

// systemPrompt assembles the stable part of a decision request: who the
// agent is, its operator instructions, its notes on previous actions, its
// current status, and the commands it may choose from.
func systemPrompt(env *Env, available []Spec) string {
	var history []string
	if len(env.State.History) > 0 {
		for i, item := range env.State.History {
			history = append(history, fmt.Sprintf("History item %d: %s", i, item.ModelAction))
			history = append(history, fmt.Sprintf("Result: %s", item.ActionResult))
		}
	} else {
		history = append(history, "(No history yet)")
	}

	menu := make([]string, 0, len(available))
	for _, s := range available {
		menu = append(menu, fmt.Sprintf("- %s: %s", s.Signature(), s.Description))
	}

	lines := []string{
		systemIntro,
		"",
		"You will be provided with:",
		"An event message that describes the last incoming event, which you can react to.",
		"A list of available commands to perform your actions.",
		"",
		"## Agent instructions:",
		env.Config.Instructions,
		"",
		"## History (your notes on previous actions):",
	}
	lines = append(lines, history...)
	lines = append(lines,
		"",
		"## Current status:",
		fmt.Sprintf("Your username is '%s'.", env.Username),
		fmt.Sprintf("You are active on the following subreddits: %s", strings.Join(env.Config.ActiveSubreddits, ", ")),
		"",
		"## Available commands:",
	)
	lines = append(lines, menu...)
	lines = append(lines, "", responseFormatInstructions)
	return strings.Join(lines, "\n")
}

// eventPrompt wraps one event message into the per-decision user prompt.
func eventPrompt(eventMessage string) string {
	return strings.Join([]string{
		"## Event message:",
		eventMessage,
		"",
		notesInstructions,
	}, "\n")
}

// inboxEventMessage describes a new inbox comment together with the
// conversation it belongs to, rendered as indented JSON.
func inboxEventMessage(conversationJSON string) string {
	return fmt.Sprintf("You have a new comment in your inbox. Here is the conversation:\n\n```json\n%s\n```", conversationJSON)
}

// postEventMessage describes a new post in the monitored subreddits
// together with its cropped conversation tree.
func postEventMessage(treeJSON string, maxTreeSize int) string {
	return fmt.Sprintf("You have a new post in the monitored subreddits. Here is the conversation tree, with the up to %d highest rated comments:\n\n```json\n%s\n```", maxTreeSize, treeJSON)
}

// scheduledPostEventMessage invites the agent to publish a scheduled post.
func scheduledPostEventMessage() string {
	return "Enough time has passed since your last post. You may now create a new post in one of your subreddits, if it fits your goals."
}
