package runtime

// User-facing texts rendered around core outcomes. The wording follows the
// bot's voice: transient outcomes read as guidance, never as errors.

// MatchTexts groups the replies of one availability command. /start and
// /search share the flow but not the voice.
type MatchTexts struct {
	Matched        string
	PartnerMatched string
	NoPartner      string
	AlreadyPaired  string
}

var StartTexts = MatchTexts{
	Matched: "🎉 Great! You've been matched with a partner!\n\n" +
		"Start chatting by sending messages. Use /stop to end the conversation.",
	PartnerMatched: "🎉 You've been matched with a new partner!\n\n" +
		"Start chatting by sending messages. Use /stop to end the conversation.",
	NoPartner: "👋 Welcome! You are now live and waiting for a match.\n\n" +
		"Use /search to find a partner or wait for someone to join.",
	AlreadyPaired: "You are already in a conversation. Use /stop to end it first, then try /start again.",
}

var SearchTexts = MatchTexts{
	Matched: "🎉 Perfect match! You've been paired with a partner!\n\n" +
		"Send messages to start chatting. Use /stop anytime to end.",
	PartnerMatched: "🎉 A new partner found you! Start chatting now.\n\n" +
		"Use /stop to end the conversation anytime.",
	NoPartner: "🔍 Searching for partners... No one available right now.\n\n" +
		"Stay live with /start or try /search again soon!",
	AlreadyPaired: "You are already matched with a partner. Use /stop to end this conversation, then try /search again.",
}

const (
	TextStopped        = "👋 Conversation ended. You are now available for new matches!\n\nUse /search to find a new partner."
	TextPartnerStopped = "💔 Your partner has ended the conversation.\n\nYou can use /search to find a new partner!"
	TextNoConversation = "You are not currently in any conversation."
	TextNoPartnerYet   = "I don't understand 😕 Please use /search to find a partner first!"
	TextDeliveryFailed = "Sorry, I couldn't deliver your message. Your partner might have left."
	TextGenericError   = "Sorry, something went wrong. Please try again."
)
