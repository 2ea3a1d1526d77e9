package controls

// DefaultControlIDs is the control set scanned when none is requested.
var DefaultControlIDs = []string{"CC1", "CC2", "CC3", "CC4", "CC5", "CC6", "CC7", "CC8"}

// Default returns the built-in SOC 2 common criteria catalogue.
func Default() *Catalogue {
	return NewCatalogue(
		CC1(), // governance: organizations, SCPs, logging trail
		CC2(), // log groups, alarms, flow logs
		CC3(), // Security Hub, GuardDuty, Inspector
		CC4(), // Config rules and alarms
		CC5(), // backups, SCPs, Config rules
		CC6(), // root MFA, password policy, Access Analyzer
		CC7(), // Config recording, SSM
		CC8(), // CodePipeline / CodeBuild
		CC9(), // KMS rotation, WAF, S3 and RDS encryption
	)
}
