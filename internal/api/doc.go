// Package api serves the workbench over HTTP. It is the presentation surface
// used by `subforge serve`: a browser or script reads the timeline, issues
// edits, starts and cancels jobs, and follows changes on an event stream.
//
// # Routes
//
// All routes live under /api. Row numbers in paths and bodies are the
// 1-based segment indices shown to users.
//
//	GET    /api/health                  liveness
//	GET    /api/snapshot                media, model, segments, and live jobs
//	POST   /api/media                   open media {"path"}
//	GET    /api/media/envelope          decoded waveform
//	GET    /api/segments                timeline with formatted timestamps
//	POST   /api/segments/import         import an SRT file {"path"}
//	GET    /api/segments/export?mode=   SRT text (source, translation, bilingual)
//	POST   /api/segments/export         write an SRT file {"path","mode"}
//	POST   /api/segments/merge          {"indices"}
//	PUT    /api/segments/{index}        replace timing and texts
//	PUT    /api/segments/{index}/region new bounds from a timeline view
//	POST   /api/segments/{index}/split
//	DELETE /api/segments/{index}
//	POST   /api/cache                   rewrite the media's cached subtitles
//	GET    /api/models                  local model directories and the loaded model
//	POST   /api/models/load             {"name","device"}
//	POST   /api/models/unload
//	GET    /api/translation/models      models offered by the translation endpoint
//	GET    /api/jobs                    live jobs; ?history=N adds ledger rows
//	GET    /api/jobs/{id}
//	POST   /api/jobs/transcription      {"model","device"}
//	POST   /api/jobs/retranscription    {"index","start_sec","end_sec"}
//	POST   /api/jobs/translation        {"indices","contextual"}
//	POST   /api/jobs/{kind}/cancel
//	GET    /api/events                  Server-Sent Events; resumes from Last-Event-ID
//
// # Errors
//
// Failures are JSON objects {"error","hint"}. The status code follows the
// error marker: invalid ranges and parse failures are 400, busy jobs 409,
// missing media or model 412, unconfigured endpoints 503, and backend
// failures 502.
package api
