// Package consumer provides functionality for processing published journal
// files in a concurrent and controlled manner. It implements a polling-based
// consumer that processes files with configurable concurrency and polling
// intervals.
//
// Each published file is a complete group journal; the consumer decodes its
// records through a binfmt registry, hands them to a handler, and deletes
// the file once the handler succeeds.
//
// Basic usage with default options:
//
//	storage := local.NewLocalStorage("pending", "published")
//	reg := binfmt.NewRegistry()
//	handler := consumer.HandlerFunc(func(ctx context.Context, group string, records iter.Seq[record.Record]) error {
//	    for rec := range records {
//	        fmt.Println(rec.ID, rec.Value)
//	    }
//	    return nil
//	})
//
//	c := consumer.New(storage, handler, reg, consumer.DefaultOptions())
//
//	// Start processing in background
//	ctx := context.Background()
//	go func() {
//	    if err := c.Start(ctx); err != nil {
//	        log.Printf("Consumer error: %v", err)
//	    }
//	}()
//
//	// Stop gracefully when done
//	c.Stop()
//
// Custom configuration:
//
//	opts := consumer.Options{
//	    PollInterval:   time.Second,
//	    MaxConcurrency: 5,
//	}
//	c := consumer.New(storage, handler, reg, opts)
//
// Single processing run:
//
//	if err := c.Process(ctx); err != nil {
//	    log.Printf("Processing error: %v", err)
//	}
//
// Features:
//   - Concurrent file processing with configurable limits
//   - Automatic file cleanup after successful processing
//   - Graceful shutdown support
//   - Polling-based monitoring of new files
//   - Context cancellation support
package consumer
