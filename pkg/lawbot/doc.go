// Package lawbot embeds the precedent question-answering pipeline in a Go
// program, without running the HTTP server.
//
// The client opens indexes written by lawbot-index and answers questions
// in-process with the same hybrid retrieval the server uses: BM25 and
// vector search with MMR, merged by weighted rank fusion.
//
//	client, err := lawbot.Open(ctx,
//	    lawbot.WithIndexDir("./law-bot"),
//	    lawbot.WithOpenAI(lawbot.OpenAIConfig{
//	        APIKey:         os.Getenv("OPENAI_API_KEY"),
//	        EmbeddingModel: "bge-m3",
//	        EmbeddingURL:   "http://localhost:8080/v1",
//	        ChatModel:      "gpt-4o",
//	    }),
//	)
//	defer client.Close()
//
//	ans, _ := client.Ask(ctx, "음주운전 처벌 기준은?")
//	fmt.Println(ans.Text)
//	for _, s := range ans.Sources {
//	    fmt.Println(s.CaseNumber, s.URL)
//	}
//
// Retrieve returns the fused passages without calling the chat model.
package lawbot
