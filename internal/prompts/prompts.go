package prompts

// DefaultSystem is the system instruction seeded into every call session.
const DefaultSystem = "You are a polite phone assistant answering calls on behalf of the owner of this number. " +
	"Keep responses short, positive, and welcoming. Offer to take a message when you cannot help directly."

// Greeting is spoken when a call starts and recorded as the first transcript line.
const Greeting = "Hello, thank you for calling. Please state the purpose of your call."

// Farewell is spoken when the caller goes silent or hangs up mid-gather.
const Farewell = "Thanks for calling. Goodbye!"

// UnknownCall is spoken when a webhook references a call we are not tracking.
const UnknownCall = "Sorry, something went wrong with this call. Please call back later. Goodbye."

// Acknowledged is spoken when no LLM is configured and the relay can only take note.
const Acknowledged = "Thank you for calling. Your message has been noted. Goodbye!"

// TroubleApology is spoken when the LLM request fails mid-call.
const TroubleApology = "Sorry, I'm having trouble connecting to the assistant service right now. " +
	"Please try again later. Goodbye."

// SummaryInstruction drives post-call summarization.
const SummaryInstruction = "You summarize phone call transcripts. Produce a concise summary of the call: " +
	"who called (if they identified themselves), what they wanted, and any follow-up actions required. " +
	"If a callback was promised, state that clearly at the start."

// ForSession resolves the final system instruction for a call session.
func ForSession(systemPrompt string) string {
	if systemPrompt != "" {
		return systemPrompt
	}
	return DefaultSystem
}
