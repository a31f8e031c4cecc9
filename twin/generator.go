package twin

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mirrorlabs/twinengine/sessionstore"
)

var twinPersonaPrompt = strings.Join([]string{
	"You are a PG-safe AI Twin, not a generic coach.",
	"No sexual content. No explicit romantic roleplay.",
	"Speak as a digital twin of the user: mirror style, directness, irony, and emotional tempo.",
	"Style target: bold, confrontational-constructive, provocative but useful.",
	"Call out contradictions clearly when user words and goals do not match, but stay respectful.",
	"Do not be bland or generic. Avoid menu-like options unless user explicitly asks for options.",
	"Use first-person plural occasionally (we/us) to reinforce shared identity, but stay natural.",
	"Do not invent personal memories not present in the conversation history or profile context.",
	"Your mission is identity mirroring plus action: reflect who the user is becoming, then propose one concrete step.",
	"Use the latest known goal, blockers, values, and previous commitments as anchors in every answer.",
	"Build at least one tentative connection between memory items (blocker/value/strength/action) before advice.",
	"Ask one surprising but grounded question when it helps reveal hidden pattern links.",
	"Never claim certainty about hidden motives; frame hypotheses as testable possibilities.",
	"Dynamically adapt language complexity to user level inferred from words and voice cadence.",
	"Use voice pace and pause patterns to infer emotional tempo before advice.",
	"If user goal is unclear, ask one sharp identity-building question.",
	"Keep response concise but natural: 3-6 lines, usually 70-140 words.",
	"Use spoken-style phrasing for turn-by-turn conversation.",
	"Ask at most one sharp question so the user talks more than you.",
	"Do not repeat the same question in consecutive turns.",
}, " ")

var coachPersonaPrompt = strings.Join([]string{
	"You are a PG-safe, warm, concise AI mirror coach.",
	"No sexual content. No explicit romantic roleplay.",
	"Primary mission: help the user become who they want to become.",
	"Mirror the user tone intelligently (energy, directness, irony) without parroting phrases.",
	"Adapt language complexity and emotional pace from user words plus voice cadence cues.",
	"Acknowledge emotions and subtext before advice.",
	"Use memory-linked hypotheses: connect at least two known signals (blocker/value/strength/action) when relevant.",
	"When pattern is plausible but uncertain, ask one concise question to test it.",
	"When intent is unclear, ask focused discovery questions to clarify goals.",
	"Always include one concrete next step.",
	"At most one follow-up question per message.",
	"Keep response concise but natural: 3-6 lines, usually 70-140 words.",
	"Favor interactive turn-taking: user should speak more than AI.",
}, " ")

func personaPrompt(mode sessionstore.Mode) string {
	if mode == sessionstore.ModeTwin {
		return twinPersonaPrompt
	}
	return coachPersonaPrompt
}

func profileContext(p sessionstore.Profile) string {
	return strings.Join([]string{
		"Strengths: " + joinOrNone(p.Strengths),
		"Blockers: " + joinOrNone(p.Blockers),
		"Values: " + joinOrNone(p.Values),
		"Next actions: " + joinOrNone(p.NextActions),
	}, "\n")
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none yet"
	}
	return strings.Join(items, " | ")
}

// buildMemoryHypotheses generates up to three tentative links between
// profile items plus one surprise question. With no profile signal yet it
// falls back to a generic early-stage hypothesis so the prompt block is
// never empty.
func buildMemoryHypotheses(profile sessionstore.Profile, state sessionstore.UserState, userText string) string {
	var hypotheses []string

	first := func(items []string) string {
		if len(items) > 0 {
			return items[0]
		}
		return ""
	}
	strength := first(profile.Strengths)
	blocker := first(profile.Blockers)
	value := first(profile.Values)
	nextAction := first(profile.NextActions)

	if blocker != "" && nextAction != "" {
		hypotheses = append(hypotheses, fmt.Sprintf("Action friction hypothesis: blocker %q is interfering with next action %q.", blocker, nextAction))
	}
	if value != "" && blocker != "" {
		hypotheses = append(hypotheses, fmt.Sprintf("Values tension hypothesis: value %q may conflict with blocker pattern %q.", value, blocker))
	}
	if strength != "" && blocker != "" {
		hypotheses = append(hypotheses, fmt.Sprintf("Leverage gap hypothesis: known strength %q is not being used against blocker %q.", strength, blocker))
	}
	if state.Goal != "" && state.Goal != "unknown" && nextAction != "" {
		hypotheses = append(hypotheses, fmt.Sprintf("Goal alignment hypothesis: current goal %q and next action %q may not yet be tightly aligned.", state.Goal, nextAction))
	}
	if state.CognitiveLoad == "high" && blocker != "" {
		hypotheses = append(hypotheses, fmt.Sprintf("Load hypothesis: high cognitive load may amplify blocker %q.", blocker))
	}

	trimmedUser := strings.TrimSpace(userText)
	if len(hypotheses) == 0 && trimmedUser != "" {
		hypotheses = append(hypotheses, fmt.Sprintf("Early-stage hypothesis: infer a repeating pattern from latest message %q and test it with one precise question.", truncate(trimmedUser, 110)))
	}
	if len(hypotheses) > 3 {
		hypotheses = hypotheses[:3]
	}

	surprise := `Potential surprise question: "What are you optimizing for that you have not named yet?"`
	if len(hypotheses) > 0 {
		blockerOr := blocker
		if blockerOr == "" {
			blockerOr = "the task"
		}
		valueOr := value
		if valueOr == "" {
			valueOr = "your identity"
		}
		surprise = fmt.Sprintf(`Potential surprise question: "What if this is less about %s and more about protecting %s?"`, blockerOr, valueOr)
	}

	lines := []string{"Memory-linked connection hypotheses (tentative, test with question):"}
	for i, h := range hypotheses {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, h))
	}
	lines = append(lines, surprise)
	return strings.Join(lines, "\n")
}

// buildGenerationPrompt assembles the user prompt for the main response
// generation call.
func buildGenerationPrompt(sess *sessionstore.Session, gate Gate, cadence, conversation, userText string) string {
	return strings.Join([]string{
		"Quality gate anchor: " + gate.Anchor,
		fmt.Sprintf("Quality gate confidence: %g", gate.Confidence),
		"User state: " + marshalUserState(sess.UserState),
		"Voice cadence cues: " + cadence,
		"Session summary: " + sess.Summary,
		"Structured profile context:",
		profileContext(sess.Profile),
		buildMemoryHypotheses(sess.Profile, sess.UserState, userText),
		"Recent conversation:",
		conversation,
		"User latest message: " + userText,
	}, "\n")
}

var (
	asksHowItWorksRe = regexp.MustCompile(`(?i)(how.*work|working|what.*purpose|purpose|explain|how this works)`)
	asksAboutModeRe  = regexp.MustCompile(`(?i)(test mode|flow|what mode)`)
	discoveryLikeRe  = regexp.MustCompile(`(?i)(are we good|what do you mean|not sure|weird|check|hello|hi\b)`)
)

var explanationTemplates = []string{
	"Simple: you talk, I mirror your patterns, challenge weak spots, and push one concrete next move.",
	"How it works: I read your intent and tone, reflect it back hard, then force a clear next action.",
	"I work as your twin: mirror, provoke, and convert your words into one decisive step.",
}

var modeTemplates = []string{
	"No mode menu. Just tell me one real thing you want to improve and I will pressure-test it.",
	"Forget labels. Give me your current bottleneck and I will challenge your next move.",
	"Skip setup. Name one problem you want solved this week and we go straight in.",
}

var discoveryTemplates = []string{
	"Got you. Give me one real friction point and I will hit it directly.",
	"Understood. What are you avoiding right now that you know matters?",
	"Fine. One concrete truth: what is the main thing you are not confronting?",
}

func twinActionTemplates(goal string) []string {
	return []string{
		fmt.Sprintf("Clear next move: pick one concrete task tied to %s, start now, then report result. Which exact task starts now?", goal),
		"Let us lock one priority from your latest update. What single task do we execute first?",
		fmt.Sprintf("Strong move now: choose one high-impact action for %s and start immediately. What is the first action?", goal),
	}
}

func coachActionTemplates(goal string) []string {
	return []string{
		fmt.Sprintf("Short plan: choose one concrete task for %s, start now, then tell me the result. Which task starts now?", goal),
		"I hear you. From your latest update, pick one action we can finish today. Which one?",
		"Let us simplify: one priority, one action, one checkpoint today. What is the action?",
	}
}

// pickTemplate selects one variant from a fixed set by seed.
func pickTemplate(templates []string, seed int) string {
	if seed < 0 {
		seed = -seed
	}
	return templates[seed%len(templates)]
}

// smartFallback produces a deterministic templated answer when no backend
// is available or the candidate was discarded. The seed rotates variants so
// consecutive fallbacks read differently.
func smartFallback(sess *sessionstore.Session, userText string, seed int) string {
	goal := "this week"
	if sess.UserState.Goal != "" && sess.UserState.Goal != "unknown" {
		goal = sess.UserState.Goal
	}

	switch {
	case asksHowItWorksRe.MatchString(userText):
		return pickTemplate(explanationTemplates, seed)
	case asksAboutModeRe.MatchString(userText):
		return pickTemplate(modeTemplates, seed)
	case sess.UserState.Goal == "unknown" ||
		sess.UserState.Phase == "discovery" ||
		discoveryLikeRe.MatchString(userText):
		return pickTemplate(discoveryTemplates, seed)
	}

	if sess.Mode == sessionstore.ModeTwin {
		return pickTemplate(twinActionTemplates(goal), seed)
	}
	return pickTemplate(coachActionTemplates(goal), seed)
}
