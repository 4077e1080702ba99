package config

// DefaultValues of the Node configuration
const DefaultValues = `
[PostgreSQL]
PortWrite = 5432
HostWrite = "localhost"
UserWrite = "mirror_node"
NameWrite = "mirror_node"

[Importer]
Enabled = true
BatchSize = 2000
Path = "./data/recordfiles"
PollInterval = "1s"

[Web3]
Enabled = true
MinGas = 21000
MaxGas = 15000000
MaxConcurrentCalls = 64
CallTimeout = "10s"

[Web3.Estimate]
Threshold = 7300
MaxIterations = 20

[Web3.Cache]
Mode = "exclusive"
TTL = "1s"
Size = 10000

[Debug]
APIAddress = ""
MeddlerLogs = false

[Log]
Level = "info"
Out = ["stdout"]
`
