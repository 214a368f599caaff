// Package agent runs the fixed four-step pipeline that turns a task into a
// completion: analyze_task, call_completion_service, postprocess_response and
// finalize. Steps run in order and the first failure stops the run.
package agent
