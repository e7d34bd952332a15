package cli

type Options struct {
	Authority string `short:"a" long:"authority" description:"metaverse authority url" required:"true"`
	StoreURL  string `short:"s" long:"store" description:"account snapshot location"`
	Legacy    string `long:"legacy" description:"legacy settings database path"`
	Username  string `short:"u" long:"username" description:"login for the password grant"`
	Password  string `short:"p" long:"password" description:"password for the password grant"`
	DomainID  string `short:"d" long:"domain" description:"domain id for domain keypair generation"`
	Verbose   bool   `short:"v" long:"verbose" description:"verbose request diagnostics"`
	Command   struct {
		Name string `positional-arg-name:"command" choice:"login" choice:"logout" choice:"profile" choice:"balance" choice:"keygen" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}
