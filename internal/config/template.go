package config

// Template is the commented starter file spec.md §6's `new-config` verb
// writes, documenting every key's default and effect.
const Template = `# wasmut configuration. All sections are optional; omitted keys use
# their default.

[engine]
# Per-mutant budget = baseline cycles * timeout_multiplier.
timeout_multiplier = 2.0
# WASI directory preopens, as [host, guest] pairs.
map_dirs = []
# Skip mutants whose candidate offset was never reached by the baseline.
coverage_based_execution = true
# Compile one meta-mutant artifact instead of one module per candidate.
meta_mutant = true
# Worker pool size; 0 selects the number of logical CPUs.
workers = 0

[filter]
# Regex allowlist on function name; empty means "all allowed".
allowed_functions = []
# Regex allowlist on DWARF source file path; empty means "all allowed".
allowed_files = []

[operators]
# Regex allowlist on operator name; empty means "all enabled".
enabled_operators = []

[report]
# Rewrite source paths before they reach the report, e.g. to strip a
# build-machine prefix: path_rewrite = ["^/build/", "src/"]
path_rewrite = ["", ""]
`
