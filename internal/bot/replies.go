package bot

import "fmt"

// User-facing replies.
const (
	ReplyHistoryCleared = "🧹 Chat history cleared! Starting fresh. Your Dynalist token is preserved."
	ReplyTokenUsage     = "❌ Please provide a token: `/token YOUR_TOKEN`"
	ReplyTokenSaved     = "✅ Access credentials saved successfully! You can now use Dyna to manage your lists."
	ReplyTokenFailed    = "❌ Failed to save token. Please try again."
	ReplyTokenUnset     = "❌ No access credentials set."
	ReplyBusy           = "⏳ I'm still working on your previous request. Please wait a moment..."
	ReplyAccessRequired = "🔒 **Access Required**\n\nDyna is currently in beta testing. You need proper access credentials to use this bot."
	ReplyLockFailed     = "❌ Another request is being processed. Please try again in a moment."
	ReplyAgentFailed    = "❌ Error processing your message. Please try again."
)

func replyTokenStatus(masked string) string {
	return fmt.Sprintf("✅ Access credentials active: `%s`\n\n"+
		"You can use Dyna commands like:\n"+
		"• \"Create a shopping list called 'Groceries'\"\n"+
		"• \"Add milk to my list\"\n"+
		"• \"Show my lists\"", masked)
}

func replyWelcome(firstName string) string {
	if firstName == "" {
		firstName = "there"
	}
	return fmt.Sprintf(`👋 Hi %s! I'm **Dyna**, your AI assistant with Dynalist integration.

🧪 **Beta Version** - Currently in testing phase

I can help with:
• General questions and calculations
• Managing your Dynalist shopping lists
• Creating, editing, and organizing lists

**Commands:**
`+"`/token_status`"+` - Check access status
`+"`/clear`"+` - Clear chat history

Once you have access, you can say things like:
• "Create a shopping list called 'Groceries'"
• "Add milk and bread to my grocery list"
• "Show all my lists"`, firstName)
}
