package bot

const welcomeMessage = `Welcome to your expense manager! 💰

Available commands:
/login - Sign in
/balance - Total balance of your accounts
/accounts - List your accounts
/movements - Latest movements
/new - Register a new movement
/help - Show all commands
/logout - Sign out

Use /login to get started.`

const helpMessage = `📚 Available commands:

👤 Session:
/login - Sign in
/logout - Sign out

💰 Queries:
/balance - Total balance
/accounts - List accounts
/account [number] - Account detail
/movements [limit] - Latest movements
/stats - Movement statistics

✏️ Actions:
/new - Create a movement
/edit [id] - Edit a movement
/delete [id] - Delete a movement

ℹ️ Help:
/help - Show this help
/cancel - Cancel the current operation`

const (
	logoutMessage     = "👋 Signed out. See you soon!"
	apologyMessage    = "❌ Something unexpected went wrong.\nPlease try again later."
	flowInProgressMsg = "You have an operation in progress.\nFinish it or use /cancel first."
)
