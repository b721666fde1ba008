package constant

// AsciiArtLogo is the banner printed above the root command help.
const AsciiArtLogo = `
       _     _          _
__   _(_) __| |_ __ ___| | __ _ _   _
\ \ / / |/ _` + "`" + ` | '__/ _ \ |/ _` + "`" + ` | | | |
 \ V /| | (_| | | |  __/ | (_| | |_| |
  \_/ |_|\__,_|_|  \___|_|\__,_|\__, |
                                |___/`
