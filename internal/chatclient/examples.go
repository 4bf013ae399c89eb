// internal/chatclient/examples.go
package chatclient

// ExampleQuestions are offered to new users of the chat client.
var ExampleQuestions = []string{
	"What percentage of passengers were male?",
	"What was the average ticket fare?",
	"Show me a histogram of passenger ages",
	"How many passengers embarked from each port?",
	"How many passengers survived?",
	"Plot passenger count by sex",
	"Show survival count by passenger class",
	"Plot distribution of fares",
	"Which class had the highest survival rate?",
}
