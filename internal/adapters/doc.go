// Package adapters renders canonical rule and skill documents into the file
// formats of individual AI tools. Each supported tool has one Adapter plus a
// static Descriptor (output directory and capabilities), both held in a
// Registry that is constructed once and passed to the installer.
//
// Four adapter strategies exist:
//
//   - PassthroughAdapter writes documents unchanged (claude).
//   - PathsToApplyToAdapter rewrites `paths` to `applyTo` and aggregates
//     always-apply rules (copilot).
//   - AggregatingAdapter folds every rule into one file (codex).
//   - WorkflowAdapter maps rules to triggers and skills to workflows (windsurf).
package adapters
