// Package pipeline runs a complete image retrieval for one or more queries.
//
// For each query it makes sure the output directory exists, loads the
// cached record list from that directory or harvests and caches a fresh
// one, and then downloads every record through a bounded worker pool.
// Harvest and cache failures end the query; a failed download only marks
// its own Outcome.
//
// Basic usage:
//
//	p := pipeline.New(cfg, log)
//	outcomes, err := p.RetrieveAll(ctx, "selfie stick", "./images/selfie stick", 8)
//	if err != nil {
//	    return err
//	}
//	for _, o := range outcomes {
//	    fmt.Println(o.Index, o.BytesWritten())
//	}
package pipeline
