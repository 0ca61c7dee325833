// Package agent runs a Gemini model in a function-calling loop.
//
// An Agent sends the conversation to a Generator, executes every function call
// the model asks for and feeds the results back until the model answers with
// text. Tool failures are reported to the model as {"error": ...} responses
// so it can recover; only transport failures surface as Go errors.
//
// Example:
//
//	a, err := agent.New(agent.Config{
//		Name:        "SummarizeAgent",
//		Model:       "gemini-2.5-flash",
//		Instruction: "Summarize text concisely.",
//	}, client.Models, logger)
//	reply, err := a.Run(ctx, nil, "Summarize: ...")
package agent
