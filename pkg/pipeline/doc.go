// Package pipeline runs steps as a directed acyclic graph.
//
// Each node of the pipeline names a Builder that creates a fresh step instance for every
// run, usually with StepOf or Bind. A node starts once all the nodes it runs after have
// finished and receives their outputs, so a node can take an input from the output of an
// upstream step:
//
//	pipe, err := pipeline.New(pipeline.Concurrency(4))
//	err = pipe.AddStep("fetch", pipeline.StepOf(Fetch, step.Inputs{"url": url}))
//	err = pipe.AddStep("parse", pipeline.Bind(Parse, nil, map[string]string{"body": "fetch.body"}), "fetch")
//	outputs, err := pipe.Run(ctx)
//
// Independent nodes run concurrently, up to the configured concurrency. The pipeline stops
// on the first error: the remaining nodes are cancelled through the context and the error
// is returned wrapped with the name of the failing node. errors.Cause returns the error of
// the step unchanged.
//
// Hooks implementing model.PipelineOption observe the pipeline. The measure package
// records how long each node waited and executed, and the drawer package renders the
// graph in DOT format, coloured by duration when a measure is attached.
package pipeline
