// Package docqa provides a Go client for the docqa question answering API.
//
//	client, _ := docqa.New("http://localhost:8000")
//	ans, _ := client.Ask(ctx, docqa.AskRequest{
//	    Query: "Which machinery needs third-party conformity assessment?",
//	    Mode:  docqa.ModeLearned,
//	})
//	if ans.Abstained() {
//	    fmt.Println("no confident answer:", ans.Reason)
//	}
//
// Server errors are returned as *APIError and match the package sentinels
// through errors.Is.
package docqa
